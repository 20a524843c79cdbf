package housekeeper

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

// rpcClient is the housekeeper's own minimal JSON-RPC caller: token-account
// enumeration and blockhash/send for the account-closer task. It is
// deliberately not shared with internal/submit's latency-sensitive client —
// this traffic has no deadline tighter than the task's own 60s period.
type rpcClient struct {
	url    string
	client *http.Client
}

func newRPCClient(url string) *rpcClient {
	return &rpcClient{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (c *rpcClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      int           `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params"`
	}{"2.0", 1, method, params}

	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s rpc error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	return json.Unmarshal(envelope.Result, out)
}

// tokenAccount is one SPL token account owned by the signer.
type tokenAccount struct {
	Pubkey solwire.Pubkey
	Amount uint64
}

// TokenAccountsByOwner lists every SPL-token-program account owner holds.
func (c *rpcClient) TokenAccountsByOwner(ctx context.Context, owner solwire.Pubkey) ([]tokenAccount, error) {
	var result struct {
		Value []struct {
			Pubkey  string `json:"pubkey"`
			Account struct {
				Data []string `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	params := []interface{}{
		owner.String(),
		map[string]string{"programId": solwire.TokenProgramID.String()},
		map[string]string{"encoding": "base64", "commitment": "finalized"},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]tokenAccount, 0, len(result.Value))
	for _, v := range result.Value {
		pk, err := solwire.PubkeyFromBase58(v.Pubkey)
		if err != nil || len(v.Account.Data) == 0 {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(v.Account.Data[0])
		if err != nil || len(data) < 72 {
			continue
		}
		amount := binary.LittleEndian.Uint64(data[64:72])
		accounts = append(accounts, tokenAccount{Pubkey: pk, Amount: amount})
	}
	return accounts, nil
}

// LatestBlockhash fetches a fresh blockhash for the close-account batch tx.
func (c *rpcClient) LatestBlockhash(ctx context.Context) ([32]byte, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", nil, &result); err != nil {
		return [32]byte{}, err
	}
	pk, err := solwire.PubkeyFromBase58(result.Value.Blockhash)
	if err != nil {
		return [32]byte{}, fmt.Errorf("parse latest blockhash: %w", err)
	}
	return [32]byte(pk), nil
}

// SendTransaction submits a base64-wrapped signed transaction and returns
// the resulting signature, best-effort.
func (c *rpcClient) SendTransaction(ctx context.Context, base64Tx string) (string, error) {
	var sig string
	params := []interface{}{base64Tx, map[string]string{"encoding": "base64"}}
	if err := c.call(ctx, "sendTransaction", params, &sig); err != nil {
		return "", err
	}
	return sig, nil
}
