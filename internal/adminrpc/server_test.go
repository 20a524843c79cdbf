package adminrpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/lists"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

const testConfigBody = `BUY_ENABLED=true
MAX_SOL=1.0
WHITELIST_ENABLED=false
JITO_FEE=0.001
ZERO_SLOT_BUY_FEE=0.001
ZERO_SLOT_SELL_FEE=0.001
NONCE_PUBKEY=11111111111111111111111111111112
PRIVATE_KEY=
DATABASE_URL=postgres://localhost/test
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.env")
	if err := os.WriteFile(cfgPath, []byte(testConfigBody), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	blacklist, err := lists.NewSet(filepath.Join(dir, "blacklist.txt"))
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	log := logging.New(&logging.Config{Level: "error", Output: io.Discard})
	return New(cfg, blacklist, log)
}

func rpcCall(t *testing.T, s *Server, method string, params interface{}) Response {
	t.Helper()
	var rawParams json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		rawParams = b
	}

	reqBody, err := json.Marshal(Request{JSONRPC: "2.0", Method: method, Params: rawParams, ID: 1})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	s.engine.ServeHTTP(w, req)

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestGetConfigReturnsSnapshot(t *testing.T) {
	s := newTestServer(t)
	resp := rpcCall(t, s, "get_config", nil)
	if resp.Error != nil {
		t.Fatalf("get_config error: %+v", resp.Error)
	}
}

func TestUpdateConfigPersistsChange(t *testing.T) {
	s := newTestServer(t)
	newMax := 2.5
	resp := rpcCall(t, s, "update_config", map[string]interface{}{"max_sol": newMax})
	if resp.Error != nil {
		t.Fatalf("update_config error: %+v", resp.Error)
	}
	if got := s.cfg.MaxSol(); got != newMax {
		t.Errorf("MaxSol() = %v, want %v", got, newMax)
	}
}

func TestBlacklistAddGetRemove(t *testing.T) {
	s := newTestServer(t)
	const creator = "BadActor11111111111111111111111111111111"

	if resp := rpcCall(t, s, "add_blacklist", map[string]string{"creator": creator}); resp.Error != nil {
		t.Fatalf("add_blacklist error: %+v", resp.Error)
	}
	if !s.blacklist.Contains(creator) {
		t.Fatal("expected blacklist to contain creator after add")
	}

	if resp := rpcCall(t, s, "remove_blacklist", map[string]string{"creator": creator}); resp.Error != nil {
		t.Fatalf("remove_blacklist error: %+v", resp.Error)
	}
	if s.blacklist.Contains(creator) {
		t.Fatal("expected blacklist to no longer contain creator after remove")
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := newTestServer(t)
	resp := rpcCall(t, s, "does_not_exist", nil)
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Fatalf("resp.Error = %+v, want MethodNotFound", resp.Error)
	}
}
