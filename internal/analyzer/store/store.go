// Package store is the analyzer's Postgres persistence layer: token_states
// and token_trades tables, and the WhitelistQuery aggregation that the
// sniper's housekeeper pulls through internal/analyzer/whitelistapi. Grounded on
// leanlp-BTC-coinjoin/internal/db/postgres.go's pgxpool idioms.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shredstream-sniper/sniperkit/internal/analyzer/ingest"
)

// Store is the pgxpool-backed analyzer database.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens the pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS token_states (
	id                      BIGSERIAL PRIMARY KEY,
	token_creator           TEXT NOT NULL,
	token_address           TEXT NOT NULL,
	dev_initial_buy         BIGINT,
	dev_profit              DOUBLE PRECISION,
	dev_holding_start_time  BIGINT,
	dev_holding_duration    BIGINT,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS token_trades (
	id            BIGSERIAL PRIMARY KEY,
	token_address TEXT NOT NULL,
	useraddr      TEXT NOT NULL,
	is_buy        BOOLEAN NOT NULL,
	sol_amount    BIGINT NOT NULL,
	token_amount  BIGINT NOT NULL,
	timestamp     BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_token_states_creator ON token_states (token_creator);
CREATE INDEX IF NOT EXISTS idx_token_trades_address ON token_trades (token_address);
`

// InitSchema creates the analyzer's tables if they do not already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init analyzer schema: %w", err)
	}
	return nil
}

// InsertTokenState persists a completed dev round-trip, matching
// original_source/analyzer/src/main.rs's insert_token_state. Implements
// internal/analyzer/ingest.Persistor.
func (s *Store) InsertTokenState(ctx context.Context, state ingest.TokenState) error {
	const q = `
		INSERT INTO token_states (
			token_creator, token_address, dev_initial_buy, dev_profit,
			dev_holding_start_time, dev_holding_duration
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	var initialBuy *int64
	if state.DevInitialBuy != nil {
		v := int64(*state.DevInitialBuy)
		initialBuy = &v
	}
	_, err := s.pool.Exec(ctx, q,
		state.TokenCreator.String(),
		state.TokenAddress.String(),
		initialBuy,
		state.DevProfit,
		state.DevHoldingStartTime,
		state.DevHoldingDuration,
	)
	if err != nil {
		return fmt.Errorf("insert token_states row: %w", err)
	}
	return nil
}

// InsertTrade persists a non-dev buy/sell row. Implements
// internal/analyzer/ingest.Persistor.
func (s *Store) InsertTrade(ctx context.Context, trade ingest.Trade) error {
	const q = `
		INSERT INTO token_trades (
			token_address, useraddr, is_buy, sol_amount, token_amount, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, q,
		trade.TokenAddress.String(),
		trade.User.String(),
		trade.IsBuy,
		int64(trade.SolAmount),
		int64(trade.TokenAmount),
		trade.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert token_trades row: %w", err)
	}
	return nil
}
