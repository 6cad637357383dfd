package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockGetter is an in-memory fetch.Getter
type MockGetter struct {
	mu        sync.Mutex
	Responses map[string][]byte
	Errors    map[string]error
	Calls     []string
}

// NewMockGetter creates an empty mock getter
func NewMockGetter() *MockGetter {
	return &MockGetter{
		Responses: make(map[string][]byte),
		Errors:    make(map[string]error),
	}
}

// Get returns the configured response or error for url
func (m *MockGetter) Get(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, url)

	if err, ok := m.Errors[url]; ok {
		return nil, err
	}
	if data, ok := m.Responses[url]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("no mock response for %s", url)
}

// CallCount returns how often url was requested
func (m *MockGetter) CallCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.Calls {
		if c == url {
			n++
		}
	}
	return n
}

// ImageHost serves fixed bodies by path and counts requests. Unknown paths
// answer 404.
type ImageHost struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string][]byte
	hits   map[string]int
}

// NewImageHost starts an image host that is closed when the test ends
func NewImageHost(t *testing.T) *ImageHost {
	t.Helper()

	h := &ImageHost{
		bodies: make(map[string][]byte),
		hits:   make(map[string]int),
	}
	h.Server = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.Close)
	return h
}

// Set registers body under path and returns its absolute URL
func (h *ImageHost) Set(path string, body []byte) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bodies[path] = body
	return h.URL + path
}

// Hits returns how often path was requested
func (h *ImageHost) Hits(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func (h *ImageHost) serve(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.hits[r.URL.Path]++
	body, ok := h.bodies[r.URL.Path]
	h.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(body)
}
