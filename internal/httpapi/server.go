// Package httpapi serves read-only JSON access to the log: search and
// backlog over HTTP, for tools that do not speak the bouncer protocol.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/backlog/internal/render"
	"github.com/roach88/backlog/internal/search"
	"github.com/roach88/backlog/internal/store"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:7001"

// LogStore is the narrow store contract required by the HTTP API.
type LogStore interface {
	search.Querier
	Backlog(ctx context.Context, target string, n int) ([]store.Row, error)
	Count(ctx context.Context) (int64, error)
}

// Server provides the HTTP API.
type Server struct {
	addr      string
	store     LogStore
	searcher  *search.Searcher
	self      string
	limit     int
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// ServerConfig holds tunable parameters for the HTTP server.
type ServerConfig struct {
	// Self is the nick own messages are shown under when a request does
	// not name one.
	Self string

	// DefaultLimit caps search results when a request sets no limit.
	DefaultLimit int
}

// NewServer creates a new HTTP API server. Default addr is DefaultAddr.
func NewServer(addr string, st LogStore, conf ...ServerConfig) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		addr:     addr,
		store:    st,
		searcher: search.New(st),
		limit:    search.DefaultLimit,
	}
	if len(conf) > 0 {
		s.self = conf[0].Self
		if conf[0].DefaultLimit > 0 {
			s.limit = conf[0].DefaultLimit
		}
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/search", s.handleSearch)
	r.GET("/api/backlog", s.handleBacklog)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the active listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) handleHealth(c *gin.Context) {
	count, err := s.store.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read log count"})
		return
	}

	resp := gin.H{
		"status":    "ok",
		"log_count": count,
	}
	if !s.startTime.IsZero() {
		resp["uptime"] = time.Since(s.startTime).String()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSearch(c *gin.Context) {
	self := c.DefaultQuery("self", s.self)

	limit, ok := positiveParam(c, "limit", s.limit)
	if !ok {
		return
	}
	debug, _ := strconv.ParseBool(c.DefaultQuery("debug", "false"))

	res, err := s.searcher.Search(c.Request.Context(), search.Request{
		Query: c.Query("q"),
		Self:  self,
		Limit: limit,
	})
	if err != nil {
		kind := search.Classify(err)
		var exec *search.ExecError
		if errors.As(err, &exec) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  exec.Err.Error(),
				"kind":   kind,
				"sql":    exec.SQL,
				"params": exec.Params,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query: " + err.Error(),
			"kind":  kind,
		})
		return
	}

	resp := gin.H{
		"rows":      render.Records(res.Rows, self),
		"row_count": len(res.Rows),
	}
	if debug {
		resp["sql"] = res.SQL
		resp["params"] = res.Args
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBacklog(c *gin.Context) {
	target := c.Query("target")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing target"})
		return
	}
	n, ok := positiveParam(c, "n", 10)
	if !ok {
		return
	}

	rows, err := s.store.Backlog(c.Request.Context(), target, n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	self := c.DefaultQuery("self", s.self)
	c.JSON(http.StatusOK, gin.H{
		"target":    target,
		"rows":      render.Records(rows, self),
		"row_count": len(rows),
	})
}

// positiveParam reads an optional positive integer query parameter. On a
// bad value it writes the 400 response and reports false.
func positiveParam(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return n, true
}
