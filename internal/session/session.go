// Package session owns the state of one waldl run: the current filter,
// the installed result set and its generation, the thumbnail cache, the
// latest status message and the download directory. Display surfaces only
// talk to a Session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"codeberg.org/snonux/waldl/internal/download"
	"codeberg.org/snonux/waldl/internal/fetch"
	"codeberg.org/snonux/waldl/internal/search"
	"codeberg.org/snonux/waldl/internal/thumbnail"
)

// Status messages shown to the user
const (
	StatusFetchFailed    = "Failed to fetch from Wallhaven"
	StatusParseFailed    = "Failed to parse API response"
	StatusDownloadFailed = "Failed to download wallpaper"
	statusSaved          = "Saved wallpaper to %s"
)

// Snapshot is a consistent view of the session for rendering
type Snapshot struct {
	Generation  uint64
	Filter      search.Filter
	Results     []search.ImageResult
	Status      string
	DownloadDir string
}

// Session is safe for use from multiple goroutines. Search and Download
// block; a display surface calls them off its UI thread.
type Session struct {
	aggregator *search.Aggregator
	thumbs     *thumbnail.Cache
	downloader *download.Downloader
	logger     *slog.Logger

	mu         sync.Mutex
	filter     search.Filter
	results    []search.ImageResult
	generation uint64
	status     string
}

// New builds a session with a shared HTTP client for API, thumbnail and
// download requests. A nil logger discards output.
func New(settings *Settings, logger *slog.Logger) *Session {
	if settings == nil {
		settings = DefaultSettings()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	netCfg := settings.Network
	netCfg.Logger = logger
	client := fetch.NewClient(&netCfg)

	opts := settings.Download
	return NewWithGetter(settings.APIURL, settings.Filter, client, &opts, logger)
}

// NewWithGetter builds a session on top of an existing getter
func NewWithGetter(apiURL string, filter search.Filter, getter fetch.Getter, opts *download.DownloadOptions, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	filter.SetMaxPages(filter.MaxPages())

	return &Session{
		aggregator: search.NewAggregator(search.NewClient(apiURL, getter), logger),
		thumbs:     thumbnail.NewCache(getter, logger),
		downloader: download.NewDownloader(getter, opts, logger),
		logger:     logger,
		filter:     filter,
	}
}

// Filter returns the current filter
func (s *Session) Filter() search.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter replaces the filter used by the next search. maxPages is clamped.
func (s *Session) SetFilter(f search.Filter) {
	f.SetMaxPages(f.MaxPages())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// UpdateFilter applies fn to a copy of the current filter and stores it
func (s *Session) UpdateFilter(fn func(f *search.Filter)) search.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.filter
	fn(&f)
	f.SetMaxPages(f.MaxPages())
	s.filter = f
	return f
}

// Results returns the installed result set
func (s *Session) Results() []search.ImageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]search.ImageResult(nil), s.results...)
}

// Status returns the latest status message
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Generation returns the generation of the installed result set
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// DownloadDir returns where downloads are written
func (s *Session) DownloadDir() string {
	return s.downloader.OutputDir()
}

// Snapshot returns the state a display surface renders
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Generation:  s.generation,
		Filter:      s.filter,
		Results:     append([]search.ImageResult(nil), s.results...),
		Status:      s.status,
		DownloadDir: s.downloader.OutputDir(),
	}
}

// Search runs the aggregator with the current filter and installs the
// outcome as a new generation. The result set is replaced and the
// thumbnail cache cleared even when the search fails.
func (s *Session) Search(ctx context.Context, progress search.ProgressFunc) (*search.Result, error) {
	f := s.Filter()

	result, err := s.aggregator.Search(ctx, f, progress)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.thumbs.Reset(s.generation)

	if err != nil {
		s.results = nil
		s.status = searchFailureStatus(err)
		s.logger.Error("search failed", "error", err, "generation", s.generation)
		return nil, err
	}

	s.results = append([]search.ImageResult(nil), result.Items...)
	s.status = result.Summary()
	s.logger.Info("search finished",
		"search_id", result.ID,
		"generation", s.generation,
		"results", len(result.Items),
		"pages_loaded", result.PagesLoaded,
		"pages_planned", result.PagesPlanned)
	return result, nil
}

func searchFailureStatus(err error) string {
	if goerr.HasTag(err, search.ErrParse) {
		return StatusParseFailed
	}
	return StatusFetchFailed
}

// Thumbnail returns the decoded thumbnail for url, fetching it on first use.
// The bool is false while the thumbnail is pending.
func (s *Session) Thumbnail(ctx context.Context, url string) (*thumbnail.Handle, bool) {
	return s.thumbs.Materialize(ctx, url)
}

// ThumbnailFor is Thumbnail for a request issued under generation. Arrivals
// for an older generation are not cached.
func (s *Session) ThumbnailFor(ctx context.Context, generation uint64, url string) (*thumbnail.Handle, bool) {
	return s.thumbs.MaterializeFor(ctx, generation, url)
}

// CachedThumbnail returns a thumbnail only if it is already materialized
func (s *Session) CachedThumbnail(url string) (*thumbnail.Handle, bool) {
	return s.thumbs.Lookup(url)
}

// CachedThumbnails returns how many thumbnails are materialized
func (s *Session) CachedThumbnails() int {
	return s.thumbs.Len()
}

// Download saves the full-size image at url and updates the status
func (s *Session) Download(ctx context.Context, url string) (string, error) {
	path, err := s.downloader.Download(ctx, url)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = DownloadStatus(path, err)
	if err != nil {
		s.logger.Error("download failed", "url", url, "error", err)
		return "", err
	}
	return path, nil
}

// DownloadStatus returns the status message for one download outcome
func DownloadStatus(path string, err error) string {
	if err != nil {
		return StatusDownloadFailed
	}
	return fmt.Sprintf(statusSaved, path)
}
