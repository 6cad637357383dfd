package download_test

import (
	"context"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"codeberg.org/snonux/waldl/internal"
	"codeberg.org/snonux/waldl/internal/download"
	"codeberg.org/snonux/waldl/internal/fetch"
	"codeberg.org/snonux/waldl/internal/imaging"
	"codeberg.org/snonux/waldl/internal/testutil"
)

var blue = color.NRGBA{B: 255, A: 255}

func decodeJPEGSize(t *testing.T, path string) (int, int) {
	t.Helper()

	f, err := os.Open(path)
	gt.NoError(t, err)
	defer f.Close()

	cfg, err := jpeg.DecodeConfig(f)
	gt.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestDownloader_Download_Native(t *testing.T) {
	host := testutil.NewImageHost(t)
	url := host.Set("/full/wallhaven-abc.png", testutil.EncodePNG(t, 64, 48, blue))
	dir := t.TempDir()

	d := download.NewDownloader(fetch.NewClient(nil), download.DefaultDownloadOptions(dir), nil)
	path, err := d.Download(context.Background(), url)
	gt.NoError(t, err)

	gt.Equal(t, path, filepath.Join(dir, internal.DigestFilename(url)))
	gt.Equal(t, path, d.PathFor(url))
	testutil.AssertFileExists(t, path)

	w, h := decodeJPEGSize(t, path)
	gt.Equal(t, w, 64)
	gt.Equal(t, h, 48)

	// Only the final file remains, no temp files.
	gt.Equal(t, testutil.ListFiles(t, dir), []string{internal.DigestFilename(url)})
}

func TestDownloader_Download_OverwritesSameURL(t *testing.T) {
	host := testutil.NewImageHost(t)
	url := host.Set("/full/same.png", testutil.EncodePNG(t, 16, 16, blue))
	dir := t.TempDir()

	d := download.NewDownloader(fetch.NewClient(nil), download.DefaultDownloadOptions(dir), nil)
	ctx := context.Background()

	first, err := d.Download(ctx, url)
	gt.NoError(t, err)

	host.Set("/full/same.png", testutil.EncodePNG(t, 32, 8, blue))
	second, err := d.Download(ctx, url)
	gt.NoError(t, err)

	gt.Equal(t, first, second)
	gt.Equal(t, len(testutil.ListFiles(t, dir)), 1)

	w, h := decodeJPEGSize(t, second)
	gt.Equal(t, w, 32)
	gt.Equal(t, h, 8)
}

func TestDownloader_Download_NotFoundWritesNothing(t *testing.T) {
	host := testutil.NewImageHost(t)
	dir := t.TempDir()

	d := download.NewDownloader(fetch.NewClient(nil), download.DefaultDownloadOptions(dir), nil)
	path, err := d.Download(context.Background(), host.URL+"/full/gone.jpg")
	gt.Error(t, err)
	gt.Equal(t, path, "")
	gt.True(t, goerr.HasTag(err, download.ErrDownload))
	gt.True(t, goerr.HasTag(err, fetch.ErrStatus))
	gt.Equal(t, len(testutil.ListFiles(t, dir)), 0)
}

func TestDownloader_Download_UndecodableWritesNothing(t *testing.T) {
	getter := testutil.NewMockGetter()
	getter.Responses["https://w.example/x.jpg"] = []byte("definitely not a jpeg")
	dir := t.TempDir()

	d := download.NewDownloader(getter, download.DefaultDownloadOptions(dir), nil)
	_, err := d.Download(context.Background(), "https://w.example/x.jpg")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, imaging.ErrDecode))
	gt.True(t, !goerr.HasTag(err, download.ErrDownload))
	gt.Equal(t, len(testutil.ListFiles(t, dir)), 0)
}

func TestDownloader_Download_Canvas(t *testing.T) {
	getter := testutil.NewMockGetter()
	getter.Responses["u"] = testutil.EncodePNG(t, 10, 10, blue)

	opts := download.DefaultDownloadOptions(t.TempDir())
	opts.Policy = download.PolicyCanvas
	opts.CanvasWidth = 40
	opts.CanvasHeight = 30

	d := download.NewDownloader(getter, opts, nil)
	path, err := d.Download(context.Background(), "u")
	gt.NoError(t, err)

	w, h := decodeJPEGSize(t, path)
	gt.Equal(t, w, 40)
	gt.Equal(t, h, 30)
}

func TestDownloader_Download_CreatesDirectory(t *testing.T) {
	getter := testutil.NewMockGetter()
	getter.Responses["u"] = testutil.EncodePNG(t, 4, 4, blue)
	dir := filepath.Join(t.TempDir(), "nested", "wallpapers")

	d := download.NewDownloader(getter, download.DefaultDownloadOptions(dir), nil)
	path, err := d.Download(context.Background(), "u")
	gt.NoError(t, err)
	testutil.AssertFileExists(t, path)
}

func TestDownloader_Download_MaxSize(t *testing.T) {
	getter := testutil.NewMockGetter()
	getter.Responses["u"] = testutil.EncodePNG(t, 50, 50, blue)
	dir := t.TempDir()

	opts := download.DefaultDownloadOptions(dir)
	opts.MaxSizeBytes = 10

	d := download.NewDownloader(getter, opts, nil)
	_, err := d.Download(context.Background(), "u")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, download.ErrTooLarge))
	gt.Equal(t, len(testutil.ListFiles(t, dir)), 0)
}

func TestDefaultDownloadOptions(t *testing.T) {
	opts := download.DefaultDownloadOptions("/tmp/x")
	gt.Equal(t, opts.OutputDir, "/tmp/x")
	gt.Equal(t, opts.Policy, download.PolicyNative)
	gt.Equal(t, opts.CanvasWidth, uint(3840))
	gt.Equal(t, opts.CanvasHeight, uint(2160))
	gt.Equal(t, opts.JPEGQuality, 75)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    download.Policy
		wantErr bool
	}{
		{"", download.PolicyNative, false},
		{"native", download.PolicyNative, false},
		{"Canvas", download.PolicyCanvas, false},
		{" canvas ", download.PolicyCanvas, false},
		{"fill", download.PolicyNative, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := download.ParsePolicy(tt.in)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, got, tt.want)
			gt.Equal(t, got.String(), map[download.Policy]string{
				download.PolicyNative: "native",
				download.PolicyCanvas: "canvas",
			}[tt.want])
		})
	}
}
