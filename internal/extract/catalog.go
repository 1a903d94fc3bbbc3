package extract

import (
	"context"
	"fmt"
	"sync/atomic"

	"fintrack/internal/core"
)

// CatalogSource loads the full category set from persistent storage.
type CatalogSource interface {
	LoadAllCategories(ctx context.Context) ([]core.Category, error)
}

// Catalog caches the category/keyword mappings in memory. A load replaces the
// whole snapshot atomically, so concurrent classification calls never observe
// a half-updated keyword set. A failed load keeps the previous snapshot
// (possibly none) in place.
//
// Snapshot order is load order and is part of the contract: the classifier
// breaks score ties by picking the first category in snapshot order.
type Catalog struct {
	source   CatalogSource
	snapshot atomic.Pointer[catalogSnapshot]
}

type catalogSnapshot struct {
	categories []core.Category
}

func NewCatalog(source CatalogSource) *Catalog {
	return &Catalog{source: source}
}

// Load replaces the in-memory cache with the current storage contents.
// All-or-nothing: on error the cache is left untouched and the error wraps
// core.ErrCatalogUnavailable.
func (c *Catalog) Load(ctx context.Context) error {
	categories, err := c.source.LoadAllCategories(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrCatalogUnavailable, err)
	}
	c.snapshot.Store(&catalogSnapshot{categories: categories})
	return nil
}

// Loaded reports whether at least one load has succeeded. An empty catalog
// still counts as loaded; classification then always yields miscellaneous.
func (c *Catalog) Loaded() bool {
	return c.snapshot.Load() != nil
}

// Snapshot returns the cached categories in load order. Callers must treat
// the returned slice as read-only.
func (c *Catalog) Snapshot() []core.Category {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.categories
}
