package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ProgressFunc reports pagination progress: called after every page attempt
// with the number of pages attempted so far and the number planned.
type ProgressFunc func(done, planned int)

// Result is the aggregated outcome of one search
type Result struct {
	ID           string        // Correlates log lines of one search
	Items        []ImageResult // Page order, then API order within a page
	Meta         PageMeta      // Pagination metadata of page 1
	PagesLoaded  int           // Pages successfully fetched and parsed
	PagesPlanned int           // min(page cap, last page)
}

// Summary returns the human-readable outcome line
func (r *Result) Summary() string {
	return fmt.Sprintf("Found %d results (pages loaded: %d/%d, per page: %d)",
		len(r.Items), r.PagesLoaded, max(r.Meta.LastPage, r.PagesLoaded), r.Meta.PerPage)
}

// Aggregator fetches pages sequentially and merges them
type Aggregator struct {
	pages  PageFetcher
	logger *slog.Logger
}

// NewAggregator creates a new aggregator. A nil logger discards output.
func NewAggregator(pages PageFetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		pages:  pages,
		logger: logger,
	}
}

// Search fetches page 1, then pages 2..min(page cap, last page) in order.
// A failure on page 1 fails the search. A failure on any later page only
// drops that page's items.
func (a *Aggregator) Search(ctx context.Context, f Filter, progress ProgressFunc) (*Result, error) {
	id := uuid.NewString()
	logger := a.logger.With("search_id", id)

	logger.Info("search started",
		"query", f.Query,
		"categories", f.Categories.String(),
		"purity", f.Purity.String(),
		"ratio", f.Ratio.String(),
		"max_pages", f.MaxPages())

	first, err := a.pages.FetchPage(ctx, 1, f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch first page", goerr.V("search_id", id))
	}

	planned := min(f.MaxPages(), first.Meta.LastPage)
	if planned < 1 {
		planned = 1
	}

	result := &Result{
		ID:           id,
		Items:        append([]ImageResult(nil), first.Items...),
		Meta:         first.Meta,
		PagesLoaded:  1,
		PagesPlanned: planned,
	}
	if progress != nil {
		progress(1, planned)
	}

	for page := 2; page <= planned; page++ {
		p, err := a.pages.FetchPage(ctx, page, f)
		if err != nil {
			logger.Warn("skipping page", "page", page, "error", err)
		} else {
			result.Items = append(result.Items, p.Items...)
			result.PagesLoaded++
		}
		if progress != nil {
			progress(page, planned)
		}
	}

	logger.Info("search finished",
		"results", len(result.Items),
		"pages_loaded", result.PagesLoaded,
		"pages_planned", planned,
		"last_page", result.Meta.LastPage)

	return result, nil
}
