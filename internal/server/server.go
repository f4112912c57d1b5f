// Package server serves the item database and recipe diagrams over HTTP.
//
// Routes:
//
//	GET /api/items?after=N                item page, [[id, label], ...]
//	GET /api/items/total                  {"Total": n}
//	GET /api/items/search?query=q         matching items, [[id, label], ...]
//	GET /api/recipe/{id}                  recipe rows, [[id, label, parent], ...]
//	GET /api/recipe/{id}/layout           laid out diagram
//	GET /api/recipe/{id}/diagram.{format} rendered diagram (svg, png, pdf, dot, json)
//	GET /healthz                          liveness
//	GET /metrics                          Prometheus metrics
//
// The first item pages are encoded once at startup and the total count is
// refreshed in the background, so the browser's initial item list never
// touches the database.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/matzehuels/craftree/internal/config"
	"github.com/matzehuels/craftree/pkg/itemdb"
	"github.com/matzehuels/craftree/pkg/observability"
	"github.com/matzehuels/craftree/pkg/pipeline"
	"github.com/matzehuels/craftree/pkg/recipe"
)

// Store is the read side of the item database.
type Store interface {
	TotalItems(ctx context.Context) (int, error)
	ItemBatch(ctx context.Context, limit, afterID int) ([]itemdb.Entry, error)
	SearchItems(ctx context.Context, query string, limit int) ([]itemdb.Entry, error)
	Recipe(ctx context.Context, id int) ([]recipe.Row, error)
}

// Server is the craftree HTTP API.
type Server struct {
	store   Store
	runner  *pipeline.Runner
	cfg     config.Server
	opts    pipeline.Options
	logger  *log.Logger
	metrics *metrics
	router  chi.Router

	pages map[int][]byte // immutable after New
	total atomic.Pointer[[]byte]
}

// New prepares a server: it encodes the first item pages and the total
// count so the API can answer before Run starts refreshing.
func New(ctx context.Context, store Store, runner *pipeline.Runner, cfg config.Server, opts pipeline.Options, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		store:   store,
		runner:  runner,
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		metrics: newMetrics(),
		pages:   make(map[int][]byte),
	}
	if err := s.cachePages(ctx); err != nil {
		return nil, err
	}
	if err := s.RefreshTotal(ctx); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// cachePages encodes up to cfg.CachedPages full pages. A short page is
// left out since items may still be appended to it.
func (s *Server) cachePages(ctx context.Context) error {
	for i := range s.cfg.CachedPages {
		after := i * s.cfg.PageSize
		batch, err := s.store.ItemBatch(ctx, s.cfg.PageSize, after)
		if err != nil {
			return err
		}
		if len(batch) < s.cfg.PageSize {
			break
		}
		data, err := json.Marshal(batch)
		if err != nil {
			return err
		}
		s.pages[after] = data
		s.logger.Debug("cached item page", "after", after)
	}
	s.logger.Info("cached item pages", "pages", len(s.pages))
	return nil
}

// RefreshTotal recomputes the cached item count.
func (s *Server) RefreshTotal(ctx context.Context) error {
	n, err := s.store.TotalItems(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]int{"Total": n})
	if err != nil {
		return err
	}
	s.total.Store(&data)
	return nil
}

// InstallHooks routes pipeline and cache events into the server metrics.
func (s *Server) InstallHooks() {
	observability.SetPipelineHooks(pipelineHooks{m: s.metrics})
	observability.SetCacheHooks(cacheHooks{m: s.metrics})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on cfg.Addr until ctx is cancelled, refreshing the total
// count every cfg.RefreshInterval.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.refreshLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) refreshLoop(ctx context.Context) {
	t := time.NewTicker(s.cfg.RefreshInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.RefreshTotal(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("refresh total items", "err", err)
			}
		}
	}
}
