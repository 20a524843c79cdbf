package submit

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

// nonceAccountSize is the fixed wire size of a System Program nonce account:
// 4-byte version + 4-byte state + 32-byte authority + 32-byte durable-nonce
// blockhash + 8-byte fee_calculator.lamports_per_signature.
const nonceAccountSize = 80

const nonceStateInitialized uint32 = 1

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResult struct {
	Value *struct {
		Data []string `json:"data"`
	} `json:"value"`
}

// rpcClient is the minimal JSON-RPC caller the submitter needs for nonce
// re-reads and fresh sell blockhashes; it is not a general Solana client.
type rpcClient struct {
	url    string
	client *http.Client
}

func newRPCClient(url string) *rpcClient {
	return &rpcClient{url: url, client: &http.Client{Timeout: 5 * time.Second}}
}

func (c *rpcClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
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
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s rpc error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	return json.Unmarshal(envelope.Result, out)
}

// NonceBlockhash reads noncePubkey's account at the given commitment and
// extracts the durable-nonce blockhash, matching tx.rs's
// get_nonce_state/extract_blockhash.
func (c *rpcClient) NonceBlockhash(ctx context.Context, noncePubkey solwire.Pubkey, commitment string) ([32]byte, error) {
	var result accountInfoResult
	params := []interface{}{
		noncePubkey.String(),
		map[string]string{"encoding": "base64", "commitment": commitment},
	}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return [32]byte{}, err
	}
	if result.Value == nil || len(result.Value.Data) == 0 {
		return [32]byte{}, fmt.Errorf("nonce account %s not found", noncePubkey)
	}

	data, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
	if err != nil {
		return [32]byte{}, fmt.Errorf("decode nonce account data: %w", err)
	}
	return parseNonceBlockhash(data)
}

func parseNonceBlockhash(data []byte) ([32]byte, error) {
	if len(data) < nonceAccountSize {
		return [32]byte{}, fmt.Errorf("nonce account data is %d bytes, want at least %d", len(data), nonceAccountSize)
	}
	state := binary.LittleEndian.Uint32(data[4:8])
	if state != nonceStateInitialized {
		return [32]byte{}, fmt.Errorf("nonce account not initialized")
	}
	var blockhash [32]byte
	copy(blockhash[:], data[40:72])
	return blockhash, nil
}

// LatestBlockhash fetches a fresh blockhash for the sell path, which has no
// durable nonce to anchor against.
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
