package server

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/craftree/pkg/diagram"
	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/recipe"
	"github.com/matzehuels/craftree/pkg/render"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeRaw(w, http.StatusOK, "text/plain; charset=utf-8", []byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleItems)
		r.Get("/items/total", s.handleTotal)
		r.Get("/items/search", s.handleSearch)
		r.Route("/recipe/{id}", func(r chi.Router) {
			r.Get("/", s.handleRecipe)
			r.Get("/layout", s.handleLayout)
			r.Get("/diagram.{format}", s.handleDiagram)
		})

		// Query-string routes of the legacy browser client.
		r.Get("/getNextItems", s.handleItems)
		r.Get("/getTotalItems", s.handleTotal)
		r.Get("/getItemsFuzzy", s.handleSearch)
		r.Get("/getItemRecipe", s.handleRecipe)
	})

	if dir := s.cfg.StaticDir; dir != "" {
		assets := http.StripPrefix("/assets/", http.FileServer(http.Dir(filepath.Join(dir, "assets"))))
		r.Handle("/assets/*", assets)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
		})
	}
	return r
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	after, err := intParam(r.URL.Query().Get("after"), "after", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if data, ok := s.pages[after]; ok {
		writeRaw(w, http.StatusOK, "application/json", data)
		return
	}
	batch, err := s.store.ItemBatch(r.Context(), s.cfg.PageSize, after)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusOK, "application/json", *s.total.Load())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	found, err := s.store.SearchItems(r.Context(), r.URL.Query().Get("query"), s.cfg.SearchLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.recipe(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := recipe.WriteRows(&buf, rows); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, "application/json", buf.Bytes())
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.recipe(w, r)
	if !ok {
		return
	}
	lr, _, err := s.runner.Layout(r.Context(), rows, s.opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := diagram.Marshal(lr.Layout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, "application/json", data)
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if !render.IsFormat(format) {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown format %q", format))
		return
	}
	rows, ok := s.recipe(w, r)
	if !ok {
		return
	}

	opts := s.opts
	opts.Formats = []string{format}
	opts.Detailed = r.URL.Query().Get("detailed") != ""

	lr, _, err := s.runner.Layout(r.Context(), rows, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, hit, err := s.runner.Render(r.Context(), lr.Layout, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeRaw(w, http.StatusOK, render.ContentType(format), artifacts[format])
}

// recipe reads the item id from the path, or from ?item= on the
// query-string route, and fetches its rows.
func (s *Server) recipe(w http.ResponseWriter, r *http.Request) ([]recipe.Row, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		raw = r.URL.Query().Get("item")
	}
	id, err := intParam(raw, "item id", -1)
	if err == nil {
		err = apperrors.ValidateItemID(id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	rows, _, err := s.runner.Recipe(r.Context(), s.store, id, s.opts)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return rows, true
}

// intParam parses a decimal parameter. An empty value yields def.
func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		if def < 0 {
			return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "missing %s", name)
		}
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid %s %q", name, raw)
	}
	return v, nil
}
