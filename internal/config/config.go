// Package config loads the sniper/analyzer's runtime configuration: a flat
// key=value file for policy knobs (spec §6) guarded by a read-write lock so
// AdminRPC mutations never race the hot trade loop, plus a YAML sidecar
// describing relay topology, loaded as structured YAML the same way the
// rest of this codebase's non-hot-path config does.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Required keys; missing any of these at load time is fatal (§7).
var requiredKeys = []string{
	"BUY_ENABLED",
	"MAX_SOL",
	"WHITELIST_ENABLED",
	"JITO_FEE",
	"ZERO_SLOT_BUY_FEE",
	"ZERO_SLOT_SELL_FEE",
	"NONCE_PUBKEY",
	"PRIVATE_KEY",
	"DATABASE_URL",
}

// WhitelistThresholds are the analyzer-query parameters §4.8/§4.10 expose
// over AdminRPC's get_whitelist_config/update_whitelist_config.
type WhitelistThresholds struct {
	Profit            float64
	Avg               int64
	Count             int64
	Mid               int64
	HoldLess5SecCount int64
	MinHold           int64
	AvgUser           int64
	Top3Buy           float64
}

// Config is the live, mutable runtime configuration. All reads/writes go
// through the lock; callers must never retain a pointer across a Reload.
type Config struct {
	mu sync.RWMutex

	path   string
	values map[string]string

	buyEnabled       bool
	maxSol           float64
	whitelistEnabled bool
	jitoFee          float64
	zeroSlotBuyFee   float64
	zeroSlotSellFee  float64
	whitelist        WhitelistThresholds

	noncePubkey string
	privateKey  string
	databaseURL string
}

// Load reads and parses the flat key=value config file at path.
func Load(path string) (*Config, error) {
	values, err := readKV(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	for _, k := range requiredKeys {
		if _, ok := values[k]; !ok {
			return nil, fmt.Errorf("missing required config key %q", k)
		}
	}

	c := &Config{path: path}
	if err := c.applyLocked(values); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the backing file and atomically swaps in the new values.
func (c *Config) Reload() error {
	values, err := readKV(c.path)
	if err != nil {
		return fmt.Errorf("reload config %s: %w", c.path, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(values)
}

// applyLocked parses values into typed fields. Caller must hold c.mu for
// write, or be constructing a fresh Config.
func (c *Config) applyLocked(values map[string]string) error {
	buyEnabled, err := parseBool(values["BUY_ENABLED"])
	if err != nil {
		return err
	}
	maxSol, err := parseFloat(values["MAX_SOL"])
	if err != nil {
		return err
	}
	whitelistEnabled, err := parseBool(values["WHITELIST_ENABLED"])
	if err != nil {
		return err
	}
	jitoFee, err := parseFloat(values["JITO_FEE"])
	if err != nil {
		return err
	}
	zeroSlotBuyFee, err := parseFloat(values["ZERO_SLOT_BUY_FEE"])
	if err != nil {
		return err
	}
	zeroSlotSellFee, err := parseFloat(values["ZERO_SLOT_SELL_FEE"])
	if err != nil {
		return err
	}

	c.values = values
	c.buyEnabled = buyEnabled
	c.maxSol = maxSol
	c.whitelistEnabled = whitelistEnabled
	c.jitoFee = jitoFee
	c.zeroSlotBuyFee = zeroSlotBuyFee
	c.zeroSlotSellFee = zeroSlotSellFee
	c.noncePubkey = values["NONCE_PUBKEY"]
	c.privateKey = values["PRIVATE_KEY"]
	c.databaseURL = values["DATABASE_URL"]

	c.whitelist = WhitelistThresholds{
		Profit:            parseFloatDefault(values["WHITELIST_PROFIT"], 0),
		Avg:               parseInt64Default(values["WHITELIST_AVG"], 0),
		Count:             parseInt64Default(values["WHITELIST_COUNT"], 0),
		Mid:               parseInt64Default(values["WHITELIST_MID"], 0),
		HoldLess5SecCount: parseInt64Default(values["WHITELIST_HOLD_LESS_5_SEC_COUNT"], 0),
		MinHold:           parseInt64Default(values["WHITELIST_MIN_HOLD"], 0),
		AvgUser:           parseInt64Default(values["WHITELIST_AVG_USER"], 0),
		Top3Buy:           parseFloatDefault(values["WHITELIST_TOP_3_BUY"], 0),
	}
	return nil
}

// BuyEnabled reports the global enable flag consulted by Filter step 1.
func (c *Config) BuyEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buyEnabled
}

// MaxSol returns the configured maximum SOL per entry.
func (c *Config) MaxSol() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxSol
}

// WhitelistEnabled reports whether the whitelist gate (Filter step 4) is active.
func (c *Config) WhitelistEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.whitelistEnabled
}

// RelayFees returns the two relays' tip amounts in SOL: (jito, zeroSlotBuy, zeroSlotSell).
func (c *Config) RelayFees() (jito, zeroSlotBuy, zeroSlotSell float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jitoFee, c.zeroSlotBuyFee, c.zeroSlotSellFee
}

// WhitelistThresholds returns the analyzer-query thresholds.
func (c *Config) WhitelistThresholds() WhitelistThresholds {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.whitelist
}

// NoncePubkey returns the configured durable nonce account address.
func (c *Config) NoncePubkey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.noncePubkey
}

// PrivateKey returns the configured signer private key material (base58).
func (c *Config) PrivateKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.privateKey
}

// DatabaseURL returns the analyzer's Postgres connection string.
func (c *Config) DatabaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.databaseURL
}

// Snapshot is the plain-data view returned by AdminRPC's get_config.
type Snapshot struct {
	BuyEnabled       bool    `json:"buy_enabled"`
	MaxSol           float64 `json:"max_sol"`
	WhitelistEnabled bool    `json:"whitelist_enabled"`
	JitoFee          float64 `json:"jito_fee"`
	ZeroSlotBuyFee   float64 `json:"zero_slot_buy_fee"`
	ZeroSlotSellFee  float64 `json:"zero_slot_sell_fee"`
}

// Snapshot returns a point-in-time copy of the admin-mutable fields.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		BuyEnabled:       c.buyEnabled,
		MaxSol:           c.maxSol,
		WhitelistEnabled: c.whitelistEnabled,
		JitoFee:          c.jitoFee,
		ZeroSlotBuyFee:   c.zeroSlotBuyFee,
		ZeroSlotSellFee:  c.zeroSlotSellFee,
	}
}

// Update applies a partial set of admin-mutable fields, writes the full file
// back out, and reflects the change into process-wide state immediately.
func (c *Config) Update(fields map[string]string) error {
	c.mu.Lock()
	for k, v := range fields {
		c.values[k] = v
	}
	values := make(map[string]string, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	path := c.path
	c.mu.Unlock()

	if err := writeKV(path, values); err != nil {
		return fmt.Errorf("persist config update: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(values)
}

func readKV(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		values[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// writeKV rewrites the entire config file in one pass. Only AdminRPC, a
// single writer, ever calls Update, so a direct overwrite is acceptable here
// (list-file mutation in internal/lists uses write-then-rename instead,
// since those files are read directly by external tooling between writes).
func writeKV(path string, values map[string]string) error {
	var sb strings.Builder
	for k, v := range values {
		fmt.Fprintf(&sb, "%s=%s\n", k, v)
	}
	return os.WriteFile(path, []byte(sb.String()), 0600)
}

func parseBool(s string) (bool, error) {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("parse bool %q: %w", s, err)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float %q: %w", s, err)
	}
	return v, nil
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func parseInt64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}
