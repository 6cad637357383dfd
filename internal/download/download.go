// Package download fetches full-size wallpapers and stores them as JPEG
// files named after the SHA-1 digest of their URL.
package download

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"codeberg.org/snonux/waldl/internal"
	"codeberg.org/snonux/waldl/internal/fetch"
	"codeberg.org/snonux/waldl/internal/imaging"
)

var (
	// ErrDownload tags a failed fetch of the full-size image.
	ErrDownload = goerr.NewTag("download")
	// ErrIO tags failures writing to the download directory.
	ErrIO = goerr.NewTag("io")
	// ErrTooLarge tags bodies above DownloadOptions.MaxSizeBytes.
	ErrTooLarge = goerr.NewTag("too_large")
)

// Policy selects how the decoded image is transformed before saving
type Policy int

const (
	// PolicyNative keeps the source resolution
	PolicyNative Policy = iota
	// PolicyCanvas resizes exactly to the configured canvas
	PolicyCanvas
)

func (p Policy) String() string {
	switch p {
	case PolicyCanvas:
		return "canvas"
	default:
		return "native"
	}
}

// ParsePolicy parses "native" or "canvas"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return PolicyNative, nil
	case "canvas":
		return PolicyCanvas, nil
	default:
		return PolicyNative, fmt.Errorf("unknown download policy %q (use native or canvas)", s)
	}
}

// DownloadOptions configures the download pipeline
type DownloadOptions struct {
	OutputDir    string // Directory to save images
	Policy       Policy
	CanvasWidth  uint // Target size for PolicyCanvas
	CanvasHeight uint
	JPEGQuality  int   // 1..100
	MaxSizeBytes int64 // Maximum body size to accept (0 = no limit)
}

// DefaultDownloadOptions returns the default options for dir
func DefaultDownloadOptions(dir string) *DownloadOptions {
	return &DownloadOptions{
		OutputDir:    dir,
		Policy:       PolicyNative,
		CanvasWidth:  3840,
		CanvasHeight: 2160,
		JPEGQuality:  75,
	}
}

// Downloader runs fetch, decode, transform and save for one URL at a time
type Downloader struct {
	getter  fetch.Getter
	options *DownloadOptions
	logger  *slog.Logger
}

// NewDownloader creates a new downloader. Nil options use the defaults for
// the current directory.
func NewDownloader(getter fetch.Getter, options *DownloadOptions, logger *slog.Logger) *Downloader {
	if options == nil {
		options = DefaultDownloadOptions(".")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Downloader{
		getter:  getter,
		options: options,
		logger:  logger,
	}
}

// OutputDir returns the directory files are written to
func (d *Downloader) OutputDir() string {
	return d.options.OutputDir
}

// PathFor returns where Download stores url
func (d *Downloader) PathFor(url string) string {
	return filepath.Join(d.options.OutputDir, internal.DigestFilename(url))
}

// Download fetches url, decodes it, applies the policy and writes the JPEG to
// PathFor(url), replacing any earlier file. Nothing is written on failure.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	data, err := d.getter.Get(ctx, url)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch image",
			goerr.T(ErrDownload), goerr.V("url", url))
	}
	if d.options.MaxSizeBytes > 0 && int64(len(data)) > d.options.MaxSizeBytes {
		return "", goerr.New("image exceeds maximum size",
			goerr.T(ErrDownload), goerr.T(ErrTooLarge),
			goerr.V("url", url), goerr.V("bytes", len(data)),
			goerr.V("max_bytes", d.options.MaxSizeBytes))
	}

	img, format, err := imaging.Decode(data)
	if err != nil {
		return "", goerr.Wrap(err, "failed to decode image", goerr.V("url", url))
	}

	out := d.transform(img)

	path := d.PathFor(url)
	if err := d.save(path, out); err != nil {
		return "", err
	}

	b := out.Bounds()
	d.logger.Info("saved wallpaper",
		"url", url,
		"path", path,
		"format", format,
		"policy", d.options.Policy.String(),
		"width", b.Dx(),
		"height", b.Dy())

	return path, nil
}

func (d *Downloader) transform(img image.Image) image.Image {
	if d.options.Policy == PolicyCanvas && d.options.CanvasWidth > 0 && d.options.CanvasHeight > 0 {
		return imaging.ResizeExact(img, d.options.CanvasWidth, d.options.CanvasHeight)
	}
	return img
}

// save encodes into a temp file in the target directory and renames it over path
func (d *Downloader) save(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create directory",
			goerr.T(ErrIO), goerr.V("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, ".waldl-*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file",
			goerr.T(ErrIO), goerr.V("dir", dir))
	}
	tmpName := tmp.Name()

	if err := imaging.EncodeJPEG(tmp, img, d.options.JPEGQuality); err != nil {
		tmp.Close()
		os.Remove(tmpName) // Clean up on error
		return goerr.Wrap(err, "failed to encode jpeg",
			goerr.T(ErrIO), goerr.V("path", path))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to close temp file",
			goerr.T(ErrIO), goerr.V("path", tmpName))
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to set file mode",
			goerr.T(ErrIO), goerr.V("path", tmpName))
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to move file into place",
			goerr.T(ErrIO), goerr.V("path", path))
	}
	return nil
}
