package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RelayTopology describes the two relay paths the submitter races
// transactions through, loaded from a YAML sidecar.
type RelayTopology struct {
	Jito      RelayEndpoint `yaml:"jito"`
	ZeroSlot  RelayEndpoint `yaml:"zero_slot"`
	KeepAlive string        `yaml:"keep_alive_url"`
}

// RelayEndpoint is one relay's sendTransaction URL and its dedicated set of
// tip accounts, one of which is chosen at random per submission.
type RelayEndpoint struct {
	URL         string   `yaml:"url"`
	TipAccounts []string `yaml:"tip_accounts"`
}

// LoadRelayTopology reads the relay endpoint/tip-account YAML sidecar.
func LoadRelayTopology(path string) (*RelayTopology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read relay topology %s: %w", path, err)
	}

	var topo RelayTopology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("parse relay topology %s: %w", path, err)
	}

	if topo.Jito.URL == "" || len(topo.Jito.TipAccounts) == 0 {
		return nil, fmt.Errorf("relay topology: jito relay requires url and at least one tip account")
	}
	if topo.ZeroSlot.URL == "" || len(topo.ZeroSlot.TipAccounts) == 0 {
		return nil, fmt.Errorf("relay topology: zero_slot relay requires url and at least one tip account")
	}

	return &topo, nil
}

// Save writes the topology back out as YAML.
func (t *RelayTopology) Save(path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal relay topology: %w", err)
	}
	header := []byte("# relay endpoint and tip-account topology\n\n")
	if err := os.WriteFile(path, append(header, data...), 0600); err != nil {
		return fmt.Errorf("write relay topology: %w", err)
	}
	return nil
}
