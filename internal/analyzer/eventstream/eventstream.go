// Package eventstream subscribes to the venue program's confirmed
// transaction feed and hands each transaction's logs to
// internal/analyzer/ingest (spec §4.9), reconnecting on stream error the
// same way internal/feed's LiveTradeIngest does for the sniper side.
package eventstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

// reconnectDelay mirrors internal/feed's 60-second stream-reconnect pause.
const reconnectDelay = 60 * time.Second

// TxUpdate is one confirmed transaction's log lines.
type TxUpdate struct {
	Logs []string
}

// Source is the venue program's confirmed-transaction feed, named only by
// contract — no subscription protocol client lives here.
type Source interface {
	Subscribe(ctx context.Context) (<-chan TxUpdate, error)
}

// LogHandler processes one transaction's logs; satisfied by
// internal/analyzer/ingest.Ingest.HandleLogs.
type LogHandler interface {
	HandleLogs(ctx context.Context, logs []string) error
}

// Ingest drives Source updates into a LogHandler.
type Ingest struct {
	source  Source
	handler LogHandler
	log     *logging.Logger
}

// New builds an Ingest.
func New(source Source, handler LogHandler, log *logging.Logger) *Ingest {
	return &Ingest{source: source, handler: handler, log: log.Component("analyzer.eventstream")}
}

// Run subscribes and processes updates until ctx is cancelled, reconnecting
// after reconnectDelay whenever the stream errors or closes.
func (in *Ingest) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := in.runOnce(ctx); err != nil {
			in.log.Warn("event stream ended, reconnecting", "err", err, "delay", reconnectDelay)
		} else {
			in.log.Info("event stream closed, reconnecting", "delay", reconnectDelay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// WSSource is a concrete Source: it dials a websocket endpoint and reads one
// TxUpdate per JSON text message (`{"logs": [...]}`), the same simplified
// transport internal/feed's WSLedgerTxSource uses for the sniper side — the
// real venue subscription is a gRPC log stream no library in this pack
// models.
type WSSource struct {
	url string
	log *logging.Logger
}

// NewWSSource builds a WSSource for the given endpoint URL.
func NewWSSource(url string, log *logging.Logger) *WSSource {
	return &WSSource{url: url, log: log.Component("eventstream.ws_source")}
}

type wsTxFrame struct {
	Logs []string `json:"logs"`
}

// Subscribe dials url and streams TxUpdate frames until the connection
// closes or ctx is cancelled.
func (w *WSSource) Subscribe(ctx context.Context) (<-chan TxUpdate, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial venue tx stream %s: %w", w.url, err)
	}

	out := make(chan TxUpdate)
	go func() {
		defer close(out)
		defer conn.Close()
		go func() {
			<-ctx.Done()
			conn.Close()
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame wsTxFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				w.log.Warn("decode venue tx frame", "err", err)
				continue
			}
			select {
			case out <- TxUpdate{Logs: frame.Logs}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (in *Ingest) runOnce(ctx context.Context) error {
	updates, err := in.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe event stream: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("event stream closed")
			}
			if err := in.handler.HandleLogs(ctx, update.Logs); err != nil {
				in.log.Warn("handle logs", "err", err)
			}
		}
	}
}
