// Package cache stores recipe rows, layouts and rendered diagrams.
//
// Three backends implement [Cache]: [FileCache] for the command line,
// [RedisCache] for the API server and [NullCache] when caching is disabled.
// Keys come from a [Keyer] so that every stage of the pipeline hashes its
// inputs the same way:
//
//	c, err := cache.NewFileCache(dir)
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "Items.db:")
//	key := k.RecipeKey(42)
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    // ...
//	}
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default time-to-live per cached artifact.
const (
	TTLRecipe   = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLHTTP     = time.Hour
)

// Cache is a byte store with per-entry expiration.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures. A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	// HTTPKey keys a raw API response.
	HTTPKey(namespace, key string) string
	// RecipeKey keys the recipe rows of one item.
	RecipeKey(item int) string
	// LayoutKey keys a layout computed from rows with the given hash.
	LayoutKey(rowsHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendering of the layout with the given hash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists every option that changes a computed layout.
type LayoutKeyOpts struct {
	RowSpacing    float64 `json:"row_spacing"`
	ColumnSpacing float64 `json:"column_spacing"`
	FontSize      float64 `json:"font_size"`
	Padding       float64 `json:"padding"`
}

// ArtifactKeyOpts lists every option that changes a rendered file.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	Margin       float64 `json:"margin"`
	CornerRadius float64 `json:"corner_radius"`
	FontSize     float64 `json:"font_size"`
	Scale        float64 `json:"scale"`
}

// DefaultKeyer hashes the inputs of each stage into a prefixed key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) RecipeKey(item int) string {
	return fmt.Sprintf("recipe:%d", item)
}

func (DefaultKeyer) LayoutKey(rowsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", rowsHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
