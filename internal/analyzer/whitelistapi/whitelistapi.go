// Package whitelistapi exposes the analyzer's WhitelistQuery aggregation
// over HTTP, matching original_source/sniper/src/services/jito_client.rs's
// fetch_data_from_api REST shape (GET /query?profit=...&avg=...) — this is
// the server side the sniper's internal/housekeeper calls as a client.
package whitelistapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shredstream-sniper/sniperkit/internal/analyzer/store"
	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

// Querier is the store dependency this handler calls through.
type Querier interface {
	WhitelistQuery(ctx context.Context, thresholds config.WhitelistThresholds) (store.WhitelistResult, error)
}

// queryResponse matches original_source/analyzer/src/server.rs's
// WhitelistResponse shape: the filtered rows plus the two repo-wide totals.
// Only token_creator is consumed downstream by internal/housekeeper's
// refresher; the rest is informational for dashboard consumers.
type queryResponse struct {
	Data          []store.WhitelistRow `json:"data"`
	TotalCreators int64                `json:"total_creators"`
	TotalTokens   int64                `json:"total_tokens"`
}

// Server serves GET /query.
type Server struct {
	querier Querier
	log     *logging.Logger
	engine  *gin.Engine
	srv     *http.Server
}

// New builds a Server around querier.
func New(querier Querier, log *logging.Logger) *Server {
	s := &Server{querier: querier, log: log.Component("whitelistapi")}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/query", s.handleQuery)
	s.engine = engine

	return s
}

func (s *Server) handleQuery(c *gin.Context) {
	thresholds := config.WhitelistThresholds{
		Avg:               parseInt64(c.Query("avg")),
		Profit:            parseFloat(c.Query("profit")),
		Count:             parseInt64(c.Query("count")),
		Mid:               parseInt64(c.Query("mid")),
		HoldLess5SecCount: parseInt64(c.Query("hold_less_5_sec_count")),
		MinHold:           parseInt64(c.Query("minhold")),
		AvgUser:           parseInt64(c.Query("avguser")),
		Top3Buy:           parseFloat(c.Query("top3buy")),
	}

	result, err := s.querier.WhitelistQuery(c.Request.Context(), thresholds)
	if err != nil {
		s.log.Error("whitelist query failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, queryResponse{
		Data:          result.Rows,
		TotalCreators: result.TotalCreators,
		TotalTokens:   result.TotalTokens,
	})
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("whitelist api server error", "err", err)
		}
	}()
	s.log.Info("whitelist api server started", "addr", addr)
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
