package session_test

import (
	"context"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"

	"codeberg.org/snonux/waldl/internal"
	"codeberg.org/snonux/waldl/internal/download"
	"codeberg.org/snonux/waldl/internal/search"
	"codeberg.org/snonux/waldl/internal/session"
	"codeberg.org/snonux/waldl/internal/testutil"
)

// wallhaven serves the search API and the referenced images from one host
type wallhaven struct {
	t *testing.T
	*httptest.Server

	mu       sync.Mutex
	lastPage int
	perPage  int
	apiCode  int  // non-zero answers every API call with this status
	garbage  bool // answer API calls with invalid JSON
	hits     map[string]int
	png      []byte
}

func newWallhaven(t *testing.T, lastPage, perPage int) *wallhaven {
	w := &wallhaven{
		t:        t,
		lastPage: lastPage,
		perPage:  perPage,
		hits:     make(map[string]int),
		png:      testutil.EncodePNG(t, 12, 9, color.NRGBA{G: 200, A: 255}),
	}
	w.Server = httptest.NewServer(http.HandlerFunc(w.serve))
	t.Cleanup(w.Close)
	return w
}

func (w *wallhaven) set(fn func(w *wallhaven)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w)
}

func (w *wallhaven) hitCount(path string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hits[path]
}

func (w *wallhaven) serve(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hits[r.URL.Path]++

	switch {
	case r.URL.Path == "/api/v1/search":
		if w.apiCode != 0 {
			rw.WriteHeader(w.apiCode)
			return
		}
		if w.garbage {
			fmt.Fprint(rw, "<html>maintenance</html>")
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		fmt.Fprint(rw, `{"data":[`)
		for i := 0; i < w.perPage; i++ {
			if i > 0 {
				fmt.Fprint(rw, ",")
			}
			fmt.Fprintf(rw, `{"path":"%s/full/%d-%d.png","thumbs":{"small":"%s/th/%d-%d.png"}}`,
				w.URL, page, i, w.URL, page, i)
		}
		fmt.Fprintf(rw, `],"meta":{"current_page":%d,"last_page":%d,"per_page":%d,"total":%d}}`,
			page, w.lastPage, w.perPage, w.lastPage*w.perPage)
	case filepath.Dir(r.URL.Path) == "/full" || filepath.Dir(r.URL.Path) == "/th":
		if filepath.Base(r.URL.Path) == "404.png" {
			http.NotFound(rw, r)
			return
		}
		rw.Write(w.png)
	default:
		http.NotFound(rw, r)
	}
}

func newSession(t *testing.T, api *wallhaven) (*session.Session, string) {
	t.Helper()

	dir := t.TempDir()
	settings := session.DefaultSettings()
	settings.APIURL = api.URL
	settings.Download = *download.DefaultDownloadOptions(dir)
	return session.New(settings, nil), dir
}

func TestSession_Search_InstallsResults(t *testing.T) {
	api := newWallhaven(t, 2, 3)
	s, _ := newSession(t, api)

	result, err := s.Search(context.Background(), nil)
	gt.NoError(t, err)
	gt.Equal(t, len(result.Items), 6)

	snap := s.Snapshot()
	gt.Equal(t, snap.Generation, uint64(1))
	gt.Equal(t, len(snap.Results), 6)
	gt.Equal(t, snap.Results[0].FullImageURL, api.URL+"/full/1-0.png")
	gt.Equal(t, snap.Results[5].ThumbnailURL, api.URL+"/th/2-2.png")
	gt.Equal(t, snap.Status, "Found 6 results (pages loaded: 2/2, per page: 3)")
	gt.Equal(t, s.CachedThumbnails(), 0)
}

func TestSession_Search_ClearsCacheEvenWhenEmpty(t *testing.T) {
	api := newWallhaven(t, 1, 2)
	s, _ := newSession(t, api)
	ctx := context.Background()

	_, err := s.Search(ctx, nil)
	gt.NoError(t, err)

	url := s.Results()[0].ThumbnailURL
	_, ok := s.Thumbnail(ctx, url)
	gt.True(t, ok)
	gt.Equal(t, s.CachedThumbnails(), 1)

	api.set(func(w *wallhaven) { w.perPage = 0 })
	_, err = s.Search(ctx, nil)
	gt.NoError(t, err)

	gt.Equal(t, len(s.Results()), 0)
	gt.Equal(t, s.CachedThumbnails(), 0)
	gt.Equal(t, s.Generation(), uint64(2))
	gt.Equal(t, s.Status(), "Found 0 results (pages loaded: 1/1, per page: 0)")
}

func TestSession_Search_FetchFailureReplacesResults(t *testing.T) {
	api := newWallhaven(t, 1, 4)
	s, _ := newSession(t, api)
	ctx := context.Background()

	_, err := s.Search(ctx, nil)
	gt.NoError(t, err)
	_, ok := s.Thumbnail(ctx, s.Results()[0].ThumbnailURL)
	gt.True(t, ok)

	api.set(func(w *wallhaven) { w.apiCode = http.StatusServiceUnavailable })
	result, err := s.Search(ctx, nil)
	gt.Error(t, err)
	gt.Value(t, result).Nil()

	gt.Equal(t, s.Status(), session.StatusFetchFailed)
	gt.Equal(t, len(s.Results()), 0)
	gt.Equal(t, s.CachedThumbnails(), 0)
	gt.Equal(t, s.Generation(), uint64(2))
}

func TestSession_Search_ParseFailure(t *testing.T) {
	api := newWallhaven(t, 1, 1)
	api.set(func(w *wallhaven) { w.garbage = true })
	s, _ := newSession(t, api)

	_, err := s.Search(context.Background(), nil)
	gt.Error(t, err)
	gt.Equal(t, s.Status(), session.StatusParseFailed)
}

func TestSession_Search_UsesFilterAndProgress(t *testing.T) {
	api := newWallhaven(t, 10, 1)
	s, _ := newSession(t, api)

	s.UpdateFilter(func(f *search.Filter) {
		f.Query = "mountains"
		f.SetMaxPages(3)
	})

	var calls int
	result, err := s.Search(context.Background(), func(done, planned int) {
		calls++
		gt.Equal(t, planned, 3)
	})
	gt.NoError(t, err)
	gt.Equal(t, calls, 3)
	gt.Equal(t, result.PagesLoaded, 3)
	gt.Equal(t, api.hitCount("/api/v1/search"), 3)
}

func TestSession_SetFilter_ClampsMaxPages(t *testing.T) {
	api := newWallhaven(t, 1, 1)
	s, _ := newSession(t, api)

	s.SetFilter(search.DefaultFilter().WithMaxPages(500))
	gt.Equal(t, s.Filter().MaxPages(), search.MaxPages)

	f := s.UpdateFilter(func(f *search.Filter) { f.SetMaxPages(-3) })
	gt.Equal(t, f.MaxPages(), search.MinPages)
	gt.Equal(t, s.Filter().MaxPages(), search.MinPages)

	s.SetFilter(search.DefaultFilter().WithMaxPages(12))
	gt.Equal(t, s.Filter().MaxPages(), 12)
}

func TestSession_Thumbnail_FetchedOnce(t *testing.T) {
	api := newWallhaven(t, 1, 1)
	s, _ := newSession(t, api)
	ctx := context.Background()

	url := api.URL + "/th/1-0.png"
	first, ok := s.Thumbnail(ctx, url)
	gt.True(t, ok)
	second, ok := s.Thumbnail(ctx, url)
	gt.True(t, ok)

	gt.True(t, first == second)
	gt.Equal(t, api.hitCount("/th/1-0.png"), 1)

	cached, ok := s.CachedThumbnail(url)
	gt.True(t, ok)
	gt.True(t, cached == first)
}

func TestSession_ThumbnailFor_StaleGenerationNotCached(t *testing.T) {
	api := newWallhaven(t, 1, 1)
	s, _ := newSession(t, api)
	ctx := context.Background()

	_, err := s.Search(ctx, nil)
	gt.NoError(t, err)
	_, err = s.Search(ctx, nil)
	gt.NoError(t, err)
	gt.Equal(t, s.Generation(), uint64(2))

	url := s.Results()[0].ThumbnailURL
	h, ok := s.ThumbnailFor(ctx, 1, url)
	gt.True(t, ok)
	gt.Value(t, h).NotNil()
	gt.Equal(t, s.CachedThumbnails(), 0)

	_, ok = s.ThumbnailFor(ctx, 2, url)
	gt.True(t, ok)
	gt.Equal(t, s.CachedThumbnails(), 1)
}

func TestSession_Download_Success(t *testing.T) {
	api := newWallhaven(t, 1, 1)
	s, dir := newSession(t, api)

	url := api.URL + "/full/1-0.png"
	path, err := s.Download(context.Background(), url)
	gt.NoError(t, err)

	gt.Equal(t, path, filepath.Join(dir, internal.DigestFilename(url)))
	gt.Equal(t, s.Status(), "Saved wallpaper to "+path)
	gt.Equal(t, s.DownloadDir(), dir)
	testutil.AssertFileExists(t, path)
}

func TestSession_Download_NotFound(t *testing.T) {
	api := newWallhaven(t, 1, 1)
	s, dir := newSession(t, api)

	_, err := s.Download(context.Background(), api.URL+"/full/404.png")
	gt.Error(t, err)
	gt.Equal(t, s.Status(), session.StatusDownloadFailed)
	gt.Equal(t, len(testutil.ListFiles(t, dir)), 0)
}

func TestSession_ConcurrentDownloads_OwnStatus(t *testing.T) {
	api := newWallhaven(t, 1, 1)
	s, dir := newSession(t, api)

	good := api.URL + "/full/1-0.png"
	bad := api.URL + "/full/404.png"

	var wg sync.WaitGroup
	statuses := make([]string, 2)
	for i, url := range []string{good, bad} {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			statuses[i] = session.DownloadStatus(s.Download(context.Background(), url))
		}(i, url)
	}
	wg.Wait()

	gt.Equal(t, statuses[0], "Saved wallpaper to "+filepath.Join(dir, internal.DigestFilename(good)))
	gt.Equal(t, statuses[1], session.StatusDownloadFailed)
}

func TestDownloadStatus(t *testing.T) {
	gt.Equal(t, session.DownloadStatus("/tmp/a.jpg", nil), "Saved wallpaper to /tmp/a.jpg")
	gt.Equal(t, session.DownloadStatus("", fmt.Errorf("boom")), session.StatusDownloadFailed)
}

func TestDefaultDownloadDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Run("xdg", func(t *testing.T) {
		t.Setenv("XDG_DOWNLOAD_DIR", "/srv/downloads")
		gt.Equal(t, session.DefaultDownloadDir(), "/srv/downloads")
	})

	t.Run("xdg with home prefix", func(t *testing.T) {
		t.Setenv("XDG_DOWNLOAD_DIR", "$HOME/Wallpapers")
		gt.Equal(t, session.DefaultDownloadDir(), filepath.Join(home, "Wallpapers"))
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("XDG_DOWNLOAD_DIR", "")
		gt.Equal(t, session.DefaultDownloadDir(), filepath.Join(home, "Downloads"))
	})
}
