package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

// relaySendTimeout bounds every fan-out leg; spec §4.3's "500 ms hard timeout
// per path".
const relaySendTimeout = 500 * time.Millisecond

// newRelayHTTPClient builds the shared keep-alive client every relay leg
// sends through, mirroring tx.rs's HTTP_CLIENT: pool_idle_timeout(None),
// pool_max_idle_per_host(10), a 500ms request timeout.
func newRelayHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     0,
	}
	return &http.Client{Transport: transport, Timeout: relaySendTimeout}
}

// RelayEndpoint is one fan-out path: a sendTransaction URL and the dedicated
// tip accounts one of which is chosen at random per submission.
type RelayEndpoint struct {
	Name        string
	URL         string
	TipAccounts []solwire.Pubkey
}

// RandomTipAccount picks one of the endpoint's tip accounts uniformly at
// random, the same way get_random_tip_account/get_0slot_tip_account do.
func (e RelayEndpoint) RandomTipAccount() solwire.Pubkey {
	return e.TipAccounts[rand.Intn(len(e.TipAccounts))]
}

type sendTransactionRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// sendRaw POSTs a base64-wrapped sendTransaction call to url. The response
// body is drained and discarded: spec §4.3 — "neither path's response is
// required; log but do not block".
func sendRaw(ctx context.Context, client *http.Client, url, base64Tx string) error {
	body := sendTransactionRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendTransaction",
		Params:  []interface{}{base64Tx, map[string]string{"encoding": "base64"}},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal sendTransaction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build sendTransaction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
