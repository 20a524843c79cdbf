// Package main provides analyzerd, the pump.fun launch analyzer daemon: it
// ingests venue trade/create events off the live transaction feed, persists
// per-token state and trades to Postgres, and serves the whitelist-candidate
// query API the sniper's housekeeper polls.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shredstream-sniper/sniperkit/internal/analyzer/eventstream"
	"github.com/shredstream-sniper/sniperkit/internal/analyzer/ingest"
	"github.com/shredstream-sniper/sniperkit/internal/analyzer/store"
	"github.com/shredstream-sniper/sniperkit/internal/analyzer/whitelistapi"
	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "config.env", "Flat key=value runtime config path")
		venueWSURL  = flag.String("venue-ws-url", "ws://127.0.0.1:9001/logs", "Live venue transaction log websocket endpoint")
		queryAddr   = flag.String("query-addr", "127.0.0.1:8090", "Whitelist query API address")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{
		Level:      *logLevel,
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("analyzerd %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", "error", err)
	}
	log.Info("config loaded", "path", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("connect database", "error", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatal("init database schema", "error", err)
	}
	log.Info("database schema ready")

	ig := ingest.New(db, log)

	source := eventstream.NewWSSource(*venueWSURL, log)
	es := eventstream.New(source, ig, log)
	go es.Run(ctx)

	queryServer := whitelistapi.New(db, log)
	if err := queryServer.Start(*queryAddr); err != nil {
		log.Fatal("start whitelist query server", "error", err)
	}

	printBanner(log, *queryAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down...")

	cancel()
	if err := queryServer.Stop(); err != nil {
		log.Error("stop whitelist query server", "error", err)
	}
	log.Info("goodbye!")
}

func printBanner(log *logging.Logger, queryAddr string) {
	log.Info("")
	log.Info("=================================================")
	log.Infof("  analyzerd %s", version)
	log.Info("=================================================")
	log.Infof("  Whitelist query API: http://%s/query", queryAddr)
	log.Info("=================================================")
	log.Info("")
}
