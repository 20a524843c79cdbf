// Package housekeeper runs the sniper's periodic background maintenance:
// closing zero-balance SPL token accounts the signer has accumulated, and
// refreshing the whitelist from the analyzer's aggregation query. The
// periodic blacklist/whitelist file rereads are started separately by
// cmd/sniperd through lists.WatchReload.
//
// Grounded on original_source/sniper/src/services/jito_client.rs's
// clean_token_account_task and start_periodic_task.
package housekeeper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/lists"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

const (
	closeAccountsInterval  = 60 * time.Second
	whitelistFetchInterval = 60 * time.Second
	closeAccountChunkSize  = 10
)

// Housekeeper owns the periodic maintenance tasks. Run blocks until ctx is
// cancelled, matching the other long-lived tasks spawned at startup (§7).
type Housekeeper struct {
	keypair      *solwire.Keypair
	rpc          *rpcClient
	whitelistURL string
	httpClient   *http.Client
	cfg          *config.Config
	whitelist    *lists.Set
	log          *logging.Logger
}

// New builds a Housekeeper. rpcURL is a standard Solana JSON-RPC endpoint;
// whitelistURL is the analyzer's GET /query endpoint.
func New(keypair *solwire.Keypair, rpcURL, whitelistURL string, cfg *config.Config, whitelist *lists.Set, log *logging.Logger) *Housekeeper {
	return &Housekeeper{
		keypair:      keypair,
		rpc:          newRPCClient(rpcURL),
		whitelistURL: whitelistURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		cfg:          cfg,
		whitelist:    whitelist,
		log:          log.Component("housekeeper"),
	}
}

// Run starts both periodic tasks and blocks until ctx is done.
func (h *Housekeeper) Run(ctx context.Context) {
	go h.runCloseAccounts(ctx)
	go h.runWhitelistRefresh(ctx)
	<-ctx.Done()
}

func (h *Housekeeper) runCloseAccounts(ctx context.Context) {
	ticker := time.NewTicker(closeAccountsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.closeZeroBalanceAccounts(ctx); err != nil {
				h.log.Warn("close zero-balance accounts", "err", err)
			}
		}
	}
}

// closeZeroBalanceAccounts finds every zero-balance SPL token account the
// signer owns and closes them in chunks of 10, reclaiming rent.
func (h *Housekeeper) closeZeroBalanceAccounts(ctx context.Context) error {
	accounts, err := h.rpc.TokenAccountsByOwner(ctx, h.keypair.Public)
	if err != nil {
		return fmt.Errorf("list token accounts: %w", err)
	}

	var empty []solwire.Pubkey
	for _, a := range accounts {
		if a.Amount == 0 {
			empty = append(empty, a.Pubkey)
		}
	}
	if len(empty) == 0 {
		return nil
	}

	for start := 0; start < len(empty); start += closeAccountChunkSize {
		end := start + closeAccountChunkSize
		if end > len(empty) {
			end = len(empty)
		}
		chunk := empty[start:end]

		blockhash, err := h.rpc.LatestBlockhash(ctx)
		if err != nil {
			return fmt.Errorf("fetch blockhash: %w", err)
		}

		instructions := make([]solwire.Instruction, 0, len(chunk))
		for _, acct := range chunk {
			instructions = append(instructions, closeAccountInstruction(acct, h.keypair.Public, h.keypair.Public))
		}

		msg, err := solwire.CompileMessage(h.keypair.Public, blockhash, instructions)
		if err != nil {
			return fmt.Errorf("compile close-account message: %w", err)
		}
		tx, err := solwire.NewTransaction(msg, []*solwire.Keypair{h.keypair})
		if err != nil {
			return fmt.Errorf("sign close-account transaction: %w", err)
		}

		sig, err := h.rpc.SendTransaction(ctx, tx.Base64())
		if err != nil {
			h.log.Warn("close-account batch failed, will retry next cycle", "err", err)
			break
		}
		h.log.Info("closed zero-balance token accounts", "count", len(chunk), "signature", sig)
	}
	return nil
}

func (h *Housekeeper) runWhitelistRefresh(ctx context.Context) {
	ticker := time.NewTicker(whitelistFetchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.refreshWhitelist(ctx); err != nil {
				h.log.Warn("refresh whitelist from analyzer", "err", err)
			}
		}
	}
}

type whitelistQueryResponse struct {
	Data []struct {
		TokenCreator string `json:"token_creator"`
	} `json:"data"`
}

// refreshWhitelist calls the analyzer's whitelist query with the
// currently-configured thresholds and overwrites the local whitelist file,
// matching jito_client.rs's fetch_data_from_api/export_to_whitelist pair.
func (h *Housekeeper) refreshWhitelist(ctx context.Context) error {
	thresholds := h.cfg.WhitelistThresholds()

	q := url.Values{}
	q.Set("profit", strconv.FormatFloat(thresholds.Profit, 'f', -1, 64))
	q.Set("avg", strconv.FormatInt(thresholds.Avg, 10))
	q.Set("count", strconv.FormatInt(thresholds.Count, 10))
	q.Set("mid", strconv.FormatInt(thresholds.Mid, 10))
	q.Set("hold_less_5_sec_count", strconv.FormatInt(thresholds.HoldLess5SecCount, 10))
	q.Set("minhold", strconv.FormatInt(thresholds.MinHold, 10))
	q.Set("avguser", strconv.FormatInt(thresholds.AvgUser, 10))
	q.Set("top3buy", strconv.FormatFloat(thresholds.Top3Buy, 'f', -1, 64))

	reqURL := h.whitelistURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build whitelist query request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("query analyzer whitelist: %w", err)
	}
	defer resp.Body.Close()

	var parsed whitelistQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode whitelist query response: %w", err)
	}

	creators := make([]string, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.TokenCreator != "" {
			creators = append(creators, d.TokenCreator)
		}
	}

	if err := h.whitelist.ReplaceAll(creators); err != nil {
		return fmt.Errorf("persist refreshed whitelist: %w", err)
	}
	h.log.Info("refreshed whitelist from analyzer", "count", len(creators))
	return nil
}
