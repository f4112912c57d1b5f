package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/matzehuels/craftree/pkg/cache"
	"github.com/matzehuels/craftree/pkg/diagram"
	"github.com/matzehuels/craftree/pkg/measure"
	"github.com/matzehuels/craftree/pkg/observability"
	"github.com/matzehuels/craftree/pkg/recipe"
)

// Source returns the recipe rows of an item. The item database and the
// remote API client both implement it.
type Source interface {
	Recipe(ctx context.Context, item int) ([]recipe.Row, error)
}

// Runner executes pipeline stages with caching.
//
// A Runner holds no per-run state; one Runner may serve many goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// Measurer sizes labels. When nil each layout measures with the
	// embedded font at the requested size.
	Measurer measure.Measurer
	// TTL, when positive, replaces the per-stage entry lifetimes.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the [cache.DefaultKeyer] and a nil logger the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs recipe → layout → render for one item.
func (r *Runner) Execute(ctx context.Context, src Source, item int, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	res := &Result{}

	start := time.Now()
	rows, hit, err := r.Recipe(ctx, src, item, opts)
	if err != nil {
		return nil, fmt.Errorf("recipe: %w", err)
	}
	res.Rows = rows
	res.Stats.Rows = len(rows)
	res.Stats.RecipeTime = time.Since(start)
	res.CacheInfo.RecipeHit = hit
	r.Logger.Info("fetched recipe", "item", item, "rows", len(rows), "cached", hit, "duration", res.Stats.RecipeTime)

	start = time.Now()
	lr, hit, err := r.Layout(ctx, rows, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	res.Layout = lr.Layout
	res.Stats.Nodes = len(lr.Layout.Nodes)
	res.Stats.Orphans = len(lr.Orphans)
	res.Stats.ContourSteps = lr.ContourSteps
	res.Stats.LayoutTime = time.Since(start)
	res.CacheInfo.LayoutHit = hit
	r.Logger.Info("computed layout", "nodes", res.Stats.Nodes, "cached", hit, "duration", res.Stats.LayoutTime)

	start = time.Now()
	artifacts, hit, err := r.Render(ctx, lr.Layout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Artifacts = artifacts
	res.Stats.RenderTime = time.Since(start)
	res.CacheInfo.RenderHit = hit
	r.Logger.Info("rendered outputs", "formats", opts.Formats, "cached", hit, "duration", res.Stats.RenderTime)

	return res, nil
}

// Recipe fetches the rows of item from src, going through the cache.
func (r *Runner) Recipe(ctx context.Context, src Source, item int, opts Options) ([]recipe.Row, bool, error) {
	key := r.Keyer.RecipeKey(item)
	if !opts.Refresh {
		if data, ok := r.get(ctx, "recipe", key); ok {
			if rows, err := recipe.ReadRows(bytes.NewReader(data)); err == nil {
				return rows, true, nil
			}
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRecipeStart(ctx, item)
	start := time.Now()
	rows, err := src.Recipe(ctx, item)
	hooks.OnRecipeComplete(ctx, item, len(rows), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := recipe.WriteRows(&buf, rows); err == nil {
		r.set(ctx, "recipe", key, buf.Bytes(), cache.TTLRecipe)
	}
	return rows, false, nil
}

// Layout computes the layout of rows, going through the cache.
func (r *Runner) Layout(ctx context.Context, rows []recipe.Row, opts Options) (LayoutResult, bool, error) {
	if err := opts.Validate(); err != nil {
		return LayoutResult{}, false, err
	}

	var buf bytes.Buffer
	if err := recipe.WriteRows(&buf, rows); err != nil {
		return LayoutResult{}, false, fmt.Errorf("serialize rows for cache key: %w", err)
	}
	key := r.Keyer.LayoutKey(cache.Hash(buf.Bytes()), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, ok := r.get(ctx, "layout", key); ok {
			if lr, err := decodeLayoutEntry(data); err == nil {
				return lr, true, nil
			}
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(rows))
	start := time.Now()
	lr, err := ComputeLayout(rows, r.Measurer, opts)
	hooks.OnLayoutComplete(ctx, len(lr.Layout.Nodes), lr.ContourSteps, time.Since(start), err)
	if err != nil {
		return LayoutResult{}, false, err
	}
	if len(lr.Orphans) > 0 {
		r.Logger.Warn("rows not reachable from the root", "count", len(lr.Orphans))
	}
	r.Logger.Debug("tidy tree", "nodes", len(lr.Layout.Nodes), "contour_steps", lr.ContourSteps)

	if data, err := encodeLayoutEntry(lr); err == nil {
		r.set(ctx, "layout", key, data, cache.TTLLayout)
	}
	return lr, false, nil
}

// layoutEntry is the cached form of a [LayoutResult]. Orphans and contour
// steps are kept next to the layout so cache hits report them too.
type layoutEntry struct {
	Layout       json.RawMessage `json:"layout"`
	Orphans      []recipe.Row    `json:"orphans,omitempty"`
	ContourSteps int             `json:"contour_steps"`
}

func encodeLayoutEntry(lr LayoutResult) ([]byte, error) {
	l, err := diagram.Marshal(lr.Layout)
	if err != nil {
		return nil, err
	}
	return json.Marshal(layoutEntry{Layout: l, Orphans: lr.Orphans, ContourSteps: lr.ContourSteps})
}

func decodeLayoutEntry(data []byte) (LayoutResult, error) {
	var e layoutEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return LayoutResult{}, err
	}
	l, err := diagram.Unmarshal(e.Layout)
	if err != nil {
		return LayoutResult{}, err
	}
	return LayoutResult{Layout: l, Orphans: e.Orphans, ContourSteps: e.ContourSteps}, nil
}

// Render produces every format in opts.Formats. The bool result is true
// when all of them came from the cache.
func (r *Runner) Render(ctx context.Context, l diagram.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	data, err := diagram.Marshal(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(data)

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, f := range opts.Formats {
			d, ok := r.get(ctx, "artifact", r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(f)))
			if !ok {
				break
			}
			artifacts[f] = d
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err := RenderFormats(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for f, d := range artifacts {
		r.set(ctx, "artifact", r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(f)), d, cache.TTLArtifact)
	}
	return artifacts, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "err", err)
	}
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
