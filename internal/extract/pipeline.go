package extract

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
)

// Pipeline composes amount extraction, category classification and
// description building into a single call: free text in, structured expense
// fields out. It is safe for concurrent use; the catalog snapshot is the only
// shared state.
type Pipeline struct {
	catalog *Catalog
}

func NewPipeline(catalog *Catalog) *Pipeline {
	return &Pipeline{catalog: catalog}
}

// Extract runs the full pipeline over a prompt. The catalog is lazily loaded
// on first use; when the load fails classification proceeds against the
// stale or empty cache and the failure is logged, not returned. The only
// error condition is core.ErrNoAmount, returned when no positive amount could
// be extracted — the caller surfaces that as a rejected submission.
func (p *Pipeline) Extract(ctx context.Context, prompt string) (core.ExtractionResult, error) {
	if !p.catalog.Loaded() {
		if err := p.catalog.Load(ctx); err != nil {
			slog.WarnContext(ctx, "Category catalog load failed, classifying against empty cache",
				"error", err,
				"component", "extract")
		}
	}

	result := core.ExtractionResult{
		Amount:   ExtractAmount(prompt),
		Category: Classify(prompt, p.catalog.Snapshot()),
	}
	result.Description = BuildDescription(prompt, result.Category)

	if !result.OK() {
		return result, core.ErrNoAmount
	}
	return result, nil
}

// Reload forces a fresh catalog load, replacing the snapshot wholesale.
func (p *Pipeline) Reload(ctx context.Context) error {
	return p.catalog.Load(ctx)
}
