package search

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/m-mizutani/goerr/v2"

	"codeberg.org/snonux/waldl/internal/fetch"
)

// ErrParse tags API bodies that are not the expected JSON document.
var ErrParse = goerr.NewTag("parse")

// ImageResult is a single search hit
type ImageResult struct {
	FullImageURL string // Full resolution image
	ThumbnailURL string // Small preview
}

// PageMeta is the pagination block returned with every page
type PageMeta struct {
	CurrentPage int
	LastPage    int
	PerPage     int
	Total       int
}

// Page is one parsed page of search results
type Page struct {
	Items []ImageResult
	Meta  PageMeta
}

// apiResponse represents the search API response structure
type apiResponse struct {
	Data []apiImage `json:"data"`
	Meta apiMeta    `json:"meta"`
}

type apiImage struct {
	Path   string `json:"path"`
	Thumbs struct {
		Small string `json:"small"`
	} `json:"thumbs"`
}

type apiMeta struct {
	CurrentPage flexInt `json:"current_page"`
	LastPage    flexInt `json:"last_page"`
	PerPage     flexInt `json:"per_page"`
	Total       flexInt `json:"total"`
}

// flexInt accepts both 24 and "24"; the API is not consistent about per_page.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	*n = flexInt(v)
	return nil
}

// PageFetcher fetches a single page of results
type PageFetcher interface {
	FetchPage(ctx context.Context, page int, f Filter) (*Page, error)
}

// Client fetches search pages from the wallhaven API
type Client struct {
	baseURL string
	getter  fetch.Getter
}

// NewClient creates a new API client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, getter fetch.Getter) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		getter:  getter,
	}
}

// FetchPage fetches and parses one page
func (c *Client) FetchPage(ctx context.Context, page int, f Filter) (*Page, error) {
	reqURL := BuildSearchURL(c.baseURL, page, f)

	body, err := c.getter.Get(ctx, reqURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch search page", goerr.V("page", page))
	}

	return parsePage(body, page)
}

func parsePage(body []byte, page int) (*Page, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode search response",
			goerr.T(ErrParse), goerr.V("page", page))
	}

	items := make([]ImageResult, 0, len(resp.Data))
	for _, d := range resp.Data {
		items = append(items, ImageResult{
			FullImageURL: d.Path,
			ThumbnailURL: d.Thumbs.Small,
		})
	}

	return &Page{
		Items: items,
		Meta: PageMeta{
			CurrentPage: int(resp.Meta.CurrentPage),
			LastPage:    int(resp.Meta.LastPage),
			PerPage:     int(resp.Meta.PerPage),
			Total:       int(resp.Meta.Total),
		},
	}, nil
}
