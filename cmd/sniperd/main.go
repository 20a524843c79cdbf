// Package main provides sniperd, the pump.fun sniping daemon: it classifies
// Create+Buy pairs off the shred feed, fans buy transactions out across two
// tip-paying relays, tracks open positions against the live trade feed, and
// runs the staged exit ladder and periodic housekeeping, all behind an admin
// JSON-RPC+websocket+metrics server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/shredstream-sniper/sniperkit/internal/adminrpc"
	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/exitengine"
	"github.com/shredstream-sniper/sniperkit/internal/feed"
	"github.com/shredstream-sniper/sniperkit/internal/housekeeper"
	"github.com/shredstream-sniper/sniperkit/internal/lists"
	"github.com/shredstream-sniper/sniperkit/internal/metrics"
	"github.com/shredstream-sniper/sniperkit/internal/position"
	"github.com/shredstream-sniper/sniperkit/internal/signerkey"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
	"github.com/shredstream-sniper/sniperkit/internal/submit"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		configPath    = flag.String("config", "config.env", "Flat key=value runtime config path")
		relaysPath    = flag.String("relays", "relays.yaml", "Relay topology YAML path")
		blacklistPath = flag.String("blacklist", "blacklist.txt", "Blacklist file path")
		whitelistPath = flag.String("whitelist", "whitelist.txt", "Whitelist file path")
		rpcURL        = flag.String("rpc-url", "https://api.mainnet-beta.solana.com", "Solana JSON-RPC endpoint")
		shredURL      = flag.String("shred-url", "ws://127.0.0.1:9000/shreds", "Shred relay websocket endpoint")
		venueWSURL    = flag.String("venue-ws-url", "ws://127.0.0.1:9001/logs", "Live venue transaction log websocket endpoint")
		whitelistURL  = flag.String("whitelist-url", "http://127.0.0.1:8090/query", "Analyzer whitelist query endpoint")
		adminAddr     = flag.String("admin-addr", "127.0.0.1:8080", "Admin JSON-RPC/websocket/metrics address")
		keystorePath  = flag.String("keystore", "", "Encrypted signer keystore path (overrides config's plaintext PRIVATE_KEY when set)")
		logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		showVersion   = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{
		Level:      *logLevel,
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("sniperd %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", "error", err)
	}
	log.Info("config loaded", "path", *configPath)

	relays, err := config.LoadRelayTopology(*relaysPath)
	if err != nil {
		log.Fatal("load relay topology", "error", err)
	}

	blacklist, err := lists.NewSet(*blacklistPath)
	if err != nil {
		log.Fatal("load blacklist", "error", err)
	}
	whitelist, err := lists.NewSet(*whitelistPath)
	if err != nil {
		log.Fatal("load whitelist", "error", err)
	}

	keypair, err := loadSignerKeypair(*keystorePath, cfg.PrivateKey())
	if err != nil {
		log.Fatal("load signer keypair", "error", err)
	}
	noncePubkey, err := solwire.PubkeyFromBase58(cfg.NoncePubkey())
	if err != nil {
		log.Fatal("parse nonce pubkey", "error", err)
	}

	jito, err := toSubmitRelay("jito", relays.Jito)
	if err != nil {
		log.Fatal("parse jito relay topology", "error", err)
	}
	zeroSlot, err := toSubmitRelay("zero_slot", relays.ZeroSlot)
	if err != nil {
		log.Fatal("parse zero_slot relay topology", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table := position.NewTable()

	submitter := submit.New(keypair, noncePubkey, cfg, jito, zeroSlot, *rpcURL, table, log)
	if err := submitter.Prime(ctx); err != nil {
		log.Fatal("prime nonce blockhash", "error", err)
	}
	log.Info("nonce blockhash primed")

	engine := exitengine.New(table, submitter, blacklist, func(outcome string) {
		log.Info("exit triggered", "outcome", outcome)
		metrics.ExitOutcomeTotal.WithLabelValues(outcome).Inc()
		metrics.OpenPositions.Set(float64(table.Len()))
	})

	admin := adminrpc.New(cfg, blacklist, log)
	if err := admin.Start(*adminAddr); err != nil {
		log.Fatal("start admin rpc server", "error", err)
	}

	hk := housekeeper.New(keypair, *rpcURL, *whitelistURL, cfg, whitelist, log)
	go hk.Run(ctx)

	go lists.WatchReload(ctx.Done(), blacklist, 60*time.Second, func(err error) {
		log.Warn("reload blacklist", "error", err)
	})
	go lists.WatchReload(ctx.Done(), whitelist, 50*time.Second, func(err error) {
		log.Warn("reload whitelist", "error", err)
	})

	health := &feed.HealthFlag{}

	var correlationSeq uint64
	nextCorrelationID := func() string {
		seq := atomic.AddUint64(&correlationSeq, 1)
		return uuid.NewString() + "-" + strconv.FormatUint(seq, 10)
	}

	shredSource := feed.NewWSShredSource(*shredURL, log)
	shredIngest := feed.New(shredSource, submitter, cfg, blacklist, whitelist, health, nextCorrelationID, log)
	go shredIngest.Run(ctx)

	liveSource := feed.NewWSLedgerTxSource(*venueWSURL, log)
	liveIngest := feed.NewLiveTradeIngest(liveSource, table, engine, health, log)
	go liveIngest.Run(ctx)

	printBanner(log, *adminAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down...")

	cancel()
	if err := admin.Stop(); err != nil {
		log.Error("stop admin rpc server", "error", err)
	}
	log.Info("goodbye!")
}

// keystorePasswordEnv names the environment variable loadSignerKeypair reads
// the keystore decryption password from when keystorePath is set.
const keystorePasswordEnv = "SNIPER_KEY_PASSWORD"

// loadSignerKeypair loads the signer keypair from an encrypted keystore
// envelope when keystorePath is set, falling back to the config file's
// plaintext base58 private key otherwise.
func loadSignerKeypair(keystorePath, plaintextPrivateKey string) (*solwire.Keypair, error) {
	if keystorePath == "" {
		return solwire.KeypairFromBase58(plaintextPrivateKey)
	}

	password := os.Getenv(keystorePasswordEnv)
	if password == "" {
		return nil, fmt.Errorf("keystore %s given but %s is not set", keystorePath, keystorePasswordEnv)
	}

	enc, err := signerkey.Load(keystorePath)
	if err != nil {
		return nil, fmt.Errorf("load keystore: %w", err)
	}
	return signerkey.Decrypt(enc, password)
}

// toSubmitRelay converts the YAML-loaded relay topology (string tip
// accounts) into submit.RelayEndpoint's base58-decoded form.
func toSubmitRelay(name string, cfg config.RelayEndpoint) (submit.RelayEndpoint, error) {
	tipAccounts := make([]solwire.Pubkey, 0, len(cfg.TipAccounts))
	for _, raw := range cfg.TipAccounts {
		pk, err := solwire.PubkeyFromBase58(raw)
		if err != nil {
			return submit.RelayEndpoint{}, err
		}
		tipAccounts = append(tipAccounts, pk)
	}
	return submit.RelayEndpoint{Name: name, URL: cfg.URL, TipAccounts: tipAccounts}, nil
}

func printBanner(log *logging.Logger, adminAddr string) {
	log.Info("")
	log.Info("=================================================")
	log.Infof("  sniperd %s", version)
	log.Info("=================================================")
	log.Infof("  Admin API: http://%s", adminAddr)
	log.Infof("  Admin WS:  ws://%s/ws", adminAddr)
	log.Infof("  Metrics:   http://%s/metrics", adminAddr)
	log.Info("=================================================")
	log.Info("")
}
