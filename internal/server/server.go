// Package server exposes the analysis pipeline to agents over the Model
// Context Protocol, and provides the cached, concurrency-bounded entry
// point that the HTTP API shares.
package server

import (
	"context"
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mj1618/a11y-lens/internal/annotate"
	"github.com/mj1618/a11y-lens/internal/artifact"
	"github.com/mj1618/a11y-lens/internal/pipeline"
	"github.com/mj1618/a11y-lens/internal/session"
	"github.com/mj1618/a11y-lens/internal/version"
)

// Analyzer runs one analysis. *pipeline.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, url string, opts pipeline.Options) (*pipeline.Result, error)
}

// Config holds server configuration.
type Config struct {
	// Session holds the navigation defaults that requests may override.
	Session session.Options

	CacheSize     int
	CacheTTL      time.Duration
	MaxConcurrent int

	// AIDisabled forces SkipAI on every request.
	AIDisabled bool

	// Store receives annotated screenshots when set.
	Store artifact.Store

	Logger *zap.Logger
}

// Request is one analysis as asked for by a client. Zero fields take the
// server defaults.
type Request struct {
	URL        string
	MaxRetries int
	Timeout    time.Duration
	SkipAI     bool
	Stream     bool
	Numbered   bool
	// Refresh drops cached results for URL before running.
	Refresh    bool
}

// Outcome is a completed request.
type Outcome struct {
	Result *pipeline.Result
	Cached bool
}

// Server wraps the analyzer with a result cache and a bound on concurrent
// browsers.
type Server struct {
	analyzer Analyzer
	cfg      Config
	cache    *ResultCache
	slots    chan struct{}
	log      *zap.Logger
	mcp      *mcpserver.MCPServer
}

// New creates a Server and registers its MCP tools.
func New(a Analyzer, cfg Config) *Server {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		analyzer: a,
		cfg:      cfg,
		cache:    NewResultCache(cfg.CacheSize, cfg.CacheTTL),
		slots:    make(chan struct{}, cfg.MaxConcurrent),
		log:      log.Named("server"),
	}

	s.mcp = mcpserver.NewMCPServer(
		"a11y-lens",
		version.Version,
	)
	s.registerTools()
	return s
}

// Serve starts the MCP server with the given transport.
func (s *Server) Serve(transport, addr string) error {
	switch transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		s.log.Info("serving MCP", zap.String("addr", addr))
		return httpServer.Start(addr)
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", transport)
	}
}

// Analyze runs req, serving it from cache when possible. onFragment only
// sees fragments for fresh runs.
func (s *Server) Analyze(ctx context.Context, req Request, onFragment func(string)) (Outcome, error) {
	if err := pipeline.ValidateURL(req.URL); err != nil {
		return Outcome{}, err
	}
	if s.cfg.AIDisabled {
		req.SkipAI = true
	}

	if req.Refresh {
		s.cache.InvalidateURL(req.URL)
	}
	key := keyFor(req)
	if res, ok := s.cache.Get(key); ok {
		s.log.Debug("cache hit", zap.String("url", req.URL))
		return Outcome{Result: res, Cached: true}, nil
	}

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return Outcome{}, fmt.Errorf("%w: %w", pipeline.ErrCancelled, context.Cause(ctx))
	}
	defer func() { <-s.slots }()

	res, err := s.analyzer.Analyze(ctx, req.URL, s.options(req, onFragment))
	if err != nil {
		return Outcome{}, err
	}
	// Degraded runs are often transient; let the next request retry them.
	if len(res.Degradations) == 0 {
		s.cache.Add(key, res)
	}
	return Outcome{Result: res}, nil
}

// Upload stores the result's screenshot and returns its location, or ""
// when no store is configured.
func (s *Server) Upload(ctx context.Context, res *pipeline.Result) (string, error) {
	if s.cfg.Store == nil || len(res.Screenshot) == 0 {
		return "", nil
	}
	loc, err := s.cfg.Store.Put(ctx, artifact.NewRunID(), artifact.AnnotatedName, res.Screenshot)
	if err != nil {
		return "", fmt.Errorf("upload screenshot: %w", err)
	}
	return loc, nil
}

func (s *Server) options(req Request, onFragment func(string)) pipeline.Options {
	sopts := s.cfg.Session
	if req.MaxRetries > 0 {
		sopts.MaxRetries = req.MaxRetries
	}
	if req.Timeout > 0 {
		sopts.Timeout = req.Timeout
	}
	labels := annotate.LabelMark
	if req.Numbered {
		labels = annotate.LabelIndex
	}
	return pipeline.Options{
		Session:    sopts,
		SkipAI:     req.SkipAI,
		Stream:     req.Stream,
		OnFragment: onFragment,
		Labels:     labels,
	}
}
