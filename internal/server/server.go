// Package server exposes the commit graph layout over HTTP and websocket and
// keeps it current as the repository changes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kurobon/gitgraph/internal/config"
	"github.com/kurobon/gitgraph/internal/git"
	"github.com/kurobon/gitgraph/internal/graph"
	"github.com/kurobon/gitgraph/internal/metrics"
)

// Server owns the graph for one repository session.
type Server struct {
	session  *git.Session
	graph    *graph.Graph
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Collector
	hub      *Hub
	validate *validator.Validate
	router   http.Handler

	// refreshMu serialises refreshes. Triggered refreshes that find it held are dropped.
	refreshMu sync.Mutex
}

// New builds a server for session. A nil logger or collector is replaced by a no-op one.
func New(session *git.Session, cfg *config.Config, logger *zap.Logger, m *metrics.Collector) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		session:  session,
		graph:    graph.New(graph.WithLocation(loc)),
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		hub:      NewHub(logger, m),
		validate: newValidator(),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Graph returns the graph the server lays out.
func (s *Server) Graph() *graph.Graph {
	return s.graph
}

// Refresh recomputes the layout unless another refresh is running, in which case
// the request is dropped and false is returned.
func (s *Server) Refresh(ctx context.Context) (bool, error) {
	if !s.refreshMu.TryLock() {
		s.metrics.RefreshSkipped.Inc()
		s.logger.Debug("refresh already running, dropping request")
		return false, nil
	}
	defer s.refreshMu.Unlock()
	return true, s.refresh(ctx)
}

// refreshNow waits for any running refresh and then recomputes, so the caller
// observes its own mutation.
func (s *Server) refreshNow(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

func (s *Server) refresh(ctx context.Context) error {
	start := time.Now()
	res, err := s.session.Log(ctx, s.cfg.LogLimit)
	if err != nil {
		s.metrics.ObserveRefresh(time.Since(start), 0, 0, err)
		s.logger.Warn("refresh failed, keeping previous layout", zap.Error(err))
		return fmt.Errorf("fetch log: %w", err)
	}

	s.graph.Refresh(res.Update())
	layout := s.graph.Layout()
	elapsed := time.Since(start)
	s.metrics.ObserveRefresh(elapsed, len(layout.Nodes), layout.LaneCount, nil)
	s.logger.Debug("layout refreshed",
		zap.Int("commits", len(res.Commits)),
		zap.Int("nodes", len(layout.Nodes)),
		zap.Int("lanes", layout.LaneCount),
		zap.Duration("duration", elapsed),
	)

	s.hub.Broadcast(Message{Type: MessageTypeLayout, Data: layout})
	return nil
}

// Run computes the first layout, watches the repository when it lives on disk,
// and serves HTTP on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.refreshNow(ctx); err != nil {
		return err
	}

	if dir := s.session.GitDir(); dir != "" {
		w, err := NewWatcher(dir, s.cfg.Debounce, s.cfg.PollInterval, s.logger)
		if err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		go w.Run(ctx, func() {
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Warn("watch refresh failed", zap.Error(err))
			}
		})
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr), zap.String("repo", s.session.Path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
