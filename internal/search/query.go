package search

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the public wallhaven API host.
	DefaultBaseURL = "https://wallhaven.cc"

	searchPath = "/api/v1/search"
	sorting    = "relevance"
)

// BuildSearchURL returns the search URL for one page of results.
// Parameters are emitted in a fixed order; ratios is left out entirely when
// the filter does not constrain the aspect ratio.
func BuildSearchURL(baseURL string, page int, f Filter) string {
	if page < 1 {
		page = 1
	}

	u := fmt.Sprintf("%s%s?q=%s&categories=%s&purity=%s&sorting=%s&page=%d",
		strings.TrimRight(baseURL, "/"),
		searchPath,
		url.QueryEscape(f.Query),
		f.Categories,
		f.Purity,
		sorting,
		page,
	)

	if r := f.Ratio.Param(); r != "" {
		u += "&ratios=" + r
	}

	return u
}
