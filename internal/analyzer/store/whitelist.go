package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/metrics"
)

// WhitelistRow is one creator's aggregated trading record, ported field for
// field from original_source/analyzer/src/server.rs's WhitelistItem.
type WhitelistRow struct {
	TokenCreator          string  `json:"token_creator"`
	TokenCount            int64   `json:"token_count"`
	AvgHoldingSeconds     float64 `json:"avg_holding_seconds"`
	TotalProfitSol        float64 `json:"total_profit_sol"`
	HoldLess5SecCount     int64   `json:"hold_less_5_sec_count"`
	HoldGreater5SecCount  int64   `json:"hold_greater_5_sec_count"`
	MidHoldCount          int64   `json:"mid_hold_count"`
	MinHoldingSeconds     int64   `json:"min_holding_seconds"`
	WinRate               float64 `json:"win_rate"`
	LatestTradeTime       int64   `json:"latest_trade_time"`
	PositiveDevProfit     float64 `json:"positive_dev_profit"`
	PositiveDevInitialBuy int64   `json:"positive_dev_initial_buy"`
	Profitability         float64 `json:"profitability"`
	AvgUsersPerToken      float64 `json:"avg_users_per_token"`
	AvgTop3BuyPerToken    float64 `json:"avg_top3_buy_per_token"`
}

// whitelistSQL is original_source/analyzer/src/server.rs's WHITELIST_SQL,
// translated from sqlx's positional binds to pgx's — same SQL dialect,
// same CTEs (token_stats/user_counts/top3_buyers_avg), same bind order.
const whitelistSQL = `
WITH token_stats AS (SELECT token_creator,
                            COUNT(DISTINCT token_address)                                                      AS token_count,
                            CAST(AVG(dev_holding_duration) AS FLOAT8)                                          AS avg_holding_seconds,
                            CAST(SUM(dev_profit) AS FLOAT8)                                                    AS total_profit_sol,
                            SUM(CASE WHEN dev_holding_duration <= 5 THEN 1 ELSE 0 END)                         AS hold_less_5_sec_count,
                            SUM(CASE WHEN dev_holding_duration > 5 THEN 1 ELSE 0 END)                          AS hold_greater_5_sec_count,
                            SUM(CASE
                                    WHEN dev_holding_duration > 5 AND dev_holding_duration < 10 THEN 1
                                    ELSE 0 END)                                                                AS mid_hold_count,
                            MIN(dev_holding_duration)                                                          AS min_holding_seconds,
                            CAST(SUM(CASE WHEN dev_profit > 0 THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS FLOAT8) AS win_rate,
                            MAX(dev_holding_start_time)                                                        AS latest_trade_time,
                            CAST(SUM(CASE WHEN dev_profit > 0 THEN dev_profit ELSE 0 END) AS FLOAT8)           AS positive_dev_profit,
                            CAST(SUM(CASE WHEN dev_initial_buy > 0 THEN dev_initial_buy ELSE 0 END) AS BIGINT) AS positive_dev_initial_buy
                     FROM token_states
                     WHERE dev_profit IS NOT NULL
                       AND dev_initial_buy IS NOT NULL
                     GROUP BY token_creator),
     user_counts AS (SELECT ts.token_creator,
                            CAST(AVG(uc.user_count) AS FLOAT8) AS avg_users_per_token
                     FROM token_states ts
                              JOIN (SELECT token_address,
                                           COUNT(DISTINCT useraddr) AS user_count
                                    FROM token_trades
                                    GROUP BY token_address) uc ON ts.token_address = uc.token_address
                     GROUP BY ts.token_creator),
     top3_buyers_avg AS (SELECT token_creator,
                                AVG(top3.sol_total / 1000000000.0) AS avg_top3_buy
                         FROM (SELECT ts.token_creator,
                                      ts.token_address,
                                      SUM(tr.sol_amount) AS sol_total
                               FROM token_states ts
                                        JOIN (SELECT token_address,
                                                     sol_amount,
                                                     ROW_NUMBER() OVER (PARTITION BY token_address ORDER BY timestamp ASC) AS rn
                                              FROM token_trades
                                              WHERE is_buy = TRUE) tr ON ts.token_address = tr.token_address
                               WHERE tr.rn <= 3
                               GROUP BY ts.token_creator, ts.token_address) top3
                         GROUP BY token_creator)
SELECT ts.token_creator,
       ts.token_count,
       ts.avg_holding_seconds,
       ts.total_profit_sol,
       ts.hold_less_5_sec_count,
       ts.hold_greater_5_sec_count,
       ts.mid_hold_count,
       ts.min_holding_seconds,
       ts.win_rate,
       ts.latest_trade_time,
       ts.positive_dev_profit,
       ts.positive_dev_initial_buy,
       CAST((ts.positive_dev_profit / (ts.positive_dev_initial_buy / 1000000000.0)) * 100 AS FLOAT8) AS profitability,
       COALESCE(uc.avg_users_per_token, 0)                                                           AS avg_users_per_token,
       CAST(COALESCE(tb.avg_top3_buy, 0) AS FLOAT8)                                                  AS avg_top3_buy_per_token
FROM token_stats ts
         LEFT JOIN user_counts uc ON ts.token_creator = uc.token_creator
         LEFT JOIN top3_buyers_avg tb ON ts.token_creator = tb.token_creator
    WHERE
        avg_holding_seconds > $1
      AND total_profit_sol > $2
      AND token_count > $3
      AND mid_hold_count <= $4
      AND hold_less_5_sec_count <= $5
      AND min_holding_seconds >= $6
      AND avg_users_per_token >= $7
      AND COALESCE(tb.avg_top3_buy, 0) >= $8
    ORDER BY total_profit_sol DESC
`

const creatorCountSQL = `SELECT COUNT(DISTINCT token_creator) FROM token_states`
const mintCountSQL = `SELECT COUNT(DISTINCT token_address) FROM token_states`

// WhitelistResult is the candidate rows plus the two repo-wide totals
// original_source/analyzer/src/server.rs returns alongside them
// (CREATOR_COUNT_SQL/MINT_COUNT_SQL), per spec §4.10.
type WhitelistResult struct {
	Rows          []WhitelistRow
	TotalCreators int64
	TotalTokens   int64
}

// WhitelistQuery runs the analyzer's candidate-creator aggregation against
// the configured thresholds, timed into metrics.WhitelistQueryLatencySeconds.
func (s *Store) WhitelistQuery(ctx context.Context, thresholds config.WhitelistThresholds) (WhitelistResult, error) {
	start := time.Now()
	defer func() {
		metrics.WhitelistQueryLatencySeconds.Observe(time.Since(start).Seconds())
	}()

	var result WhitelistResult
	if err := s.pool.QueryRow(ctx, creatorCountSQL).Scan(&result.TotalCreators); err != nil {
		return WhitelistResult{}, fmt.Errorf("count creators: %w", err)
	}
	if err := s.pool.QueryRow(ctx, mintCountSQL).Scan(&result.TotalTokens); err != nil {
		return WhitelistResult{}, fmt.Errorf("count tokens: %w", err)
	}

	rows, err := s.pool.Query(ctx, whitelistSQL,
		thresholds.Avg,
		thresholds.Profit,
		thresholds.Count,
		thresholds.Mid,
		thresholds.HoldLess5SecCount,
		thresholds.MinHold,
		thresholds.AvgUser,
		thresholds.Top3Buy,
	)
	if err != nil {
		return WhitelistResult{}, fmt.Errorf("query whitelist candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r WhitelistRow
		if err := rows.Scan(
			&r.TokenCreator,
			&r.TokenCount,
			&r.AvgHoldingSeconds,
			&r.TotalProfitSol,
			&r.HoldLess5SecCount,
			&r.HoldGreater5SecCount,
			&r.MidHoldCount,
			&r.MinHoldingSeconds,
			&r.WinRate,
			&r.LatestTradeTime,
			&r.PositiveDevProfit,
			&r.PositiveDevInitialBuy,
			&r.Profitability,
			&r.AvgUsersPerToken,
			&r.AvgTop3BuyPerToken,
		); err != nil {
			return WhitelistResult{}, fmt.Errorf("scan whitelist row: %w", err)
		}
		result.Rows = append(result.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return WhitelistResult{}, fmt.Errorf("iterate whitelist rows: %w", err)
	}
	return result, nil
}
