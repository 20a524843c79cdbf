// Package adminrpc serves the sniper's local admin surface: a JSON-RPC 2.0
// method-dispatch endpoint for config/whitelist/blacklist mutation, a
// websocket hub that pushes blacklist_updated events after blacklist changes,
// and a Prometheus /metrics handler, built on gin instead of a bare net/http
// mux. The position event types in wshub.go are defined, but nothing in this
// repository broadcasts them.
package adminrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/lists"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

// Handler is a JSON-RPC method handler.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Server is the sniper's admin JSON-RPC+websocket+metrics server.
type Server struct {
	cfg       *config.Config
	blacklist *lists.Set
	wsHub     *WSHub
	log       *logging.Logger

	handlers map[string]Handler
	engine   *gin.Engine
	srv      *http.Server
}

// New builds a Server with its method table registered. cfg and blacklist
// back get/update_config and get/add/remove_blacklist respectively.
func New(cfg *config.Config, blacklist *lists.Set, log *logging.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		blacklist: blacklist,
		wsHub:     NewWSHub(log),
		log:       log.Component("adminrpc"),
		handlers:  make(map[string]Handler),
	}
	s.registerHandlers()
	s.buildEngine()
	return s
}

// WSHub returns the server's websocket hub. Only this package's blacklist
// handlers broadcast through it; no caller uses this accessor.
func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) registerHandlers() {
	s.handlers["get_config"] = s.getConfig
	s.handlers["update_config"] = s.updateConfig
	s.handlers["get_whitelist_config"] = s.getWhitelistConfig
	s.handlers["update_whitelist_config"] = s.updateWhitelistConfig
	s.handlers["get_blacklist"] = s.getBlacklist
	s.handlers["add_blacklist"] = s.addBlacklist
	s.handlers["remove_blacklist"] = s.removeBlacklist
}

func (s *Server) buildEngine() {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	engine.POST("/", s.handleRPC)
	engine.GET("/ws", s.handleWS)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = engine
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("admin rpc server error", "err", err)
		}
	}()
	s.log.Info("admin rpc server started", "addr", addr)
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

func (s *Server) handleRPC(c *gin.Context) {
	requestID := uuid.NewString()

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, requestID, nil, ParseError, "parse error")
		return
	}
	if req.JSONRPC != "2.0" {
		s.writeError(c, requestID, req.ID, InvalidRequest, "invalid request")
		return
	}

	handler, ok := s.handlers[req.Method]
	if !ok {
		s.writeError(c, requestID, req.ID, MethodNotFound, "method not found")
		return
	}

	log := s.log.With("request_id", requestID, "method", req.Method)
	result, err := handler(c.Request.Context(), req.Params)
	if err != nil {
		log.Warn("admin rpc method failed", "err", err)
		s.writeError(c, requestID, req.ID, InternalError, err.Error())
		return
	}
	log.Debug("admin rpc method ok")
	c.JSON(http.StatusOK, Response{JSONRPC: "2.0", Result: result, ID: req.ID})
}

func (s *Server) writeError(c *gin.Context, requestID string, id interface{}, code int, message string) {
	s.log.Warn("admin rpc error response", "request_id", requestID, "code", code, "message", message)
	c.JSON(http.StatusOK, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func bindParams(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
