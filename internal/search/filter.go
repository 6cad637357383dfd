package search

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinPages and MaxPages bound the page cap of a single search.
	MinPages = 1
	MaxPages = 50

	DefaultMaxPages = 5
)

// Categories is a 3-bit flag set rendered as "general anime people".
type Categories uint8

const (
	CategoryPeople Categories = 1 << iota
	CategoryAnime
	CategoryGeneral

	CategoriesAll = CategoryGeneral | CategoryAnime | CategoryPeople
)

func (c Categories) String() string {
	return fmt.Sprintf("%03b", uint8(c&CategoriesAll))
}

// Purity is a 3-bit flag set rendered as "sfw sketchy nsfw".
type Purity uint8

const (
	PurityNSFW Purity = 1 << iota
	PuritySketchy
	PuritySFW

	PurityAll = PuritySFW | PuritySketchy | PurityNSFW
)

func (p Purity) String() string {
	return fmt.Sprintf("%03b", uint8(p&PurityAll))
}

// ParseCategories parses a bit string such as "110".
func ParseCategories(s string) (Categories, error) {
	v, err := parseMask(s)
	return Categories(v), err
}

// ParsePurity parses a bit string such as "100".
func ParsePurity(s string) (Purity, error) {
	v, err := parseMask(s)
	return Purity(v), err
}

func parseMask(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if len(s) != 3 || strings.Trim(s, "01") != "" {
		return 0, fmt.Errorf("invalid flag set %q: want three 0/1 digits", s)
	}
	v, err := strconv.ParseUint(s, 2, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid flag set %q: %w", s, err)
	}
	return uint8(v), nil
}

// AspectRatio constrains results to one aspect ratio.
type AspectRatio int

const (
	RatioAny AspectRatio = iota
	Ratio16x9
	Ratio21x9
)

// Param returns the API value for the ratio, "" for RatioAny.
func (r AspectRatio) Param() string {
	switch r {
	case Ratio16x9:
		return "16x9"
	case Ratio21x9:
		return "21x9"
	default:
		return ""
	}
}

// String returns the label shown to users
func (r AspectRatio) String() string {
	switch r {
	case Ratio16x9:
		return "16:9"
	case Ratio21x9:
		return "21:9"
	default:
		return "Any"
	}
}

// ParseAspectRatio accepts "any", "", "16x9", "16:9", "21x9" and "21:9".
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return RatioAny, nil
	case "16x9", "16:9":
		return Ratio16x9, nil
	case "21x9", "21:9":
		return Ratio21x9, nil
	default:
		return RatioAny, fmt.Errorf("unsupported aspect ratio %q", s)
	}
}

// Filter holds the user-selected search parameters
type Filter struct {
	Query      string
	Categories Categories
	Purity     Purity
	Ratio      AspectRatio

	maxPages int
}

// DefaultFilter returns all categories, SFW only, any ratio, 5 pages.
func DefaultFilter() Filter {
	return Filter{
		Categories: CategoriesAll,
		Purity:     PuritySFW,
		Ratio:      RatioAny,
		maxPages:   DefaultMaxPages,
	}
}

// MaxPages returns the page cap, always within [MinPages, MaxPages].
func (f Filter) MaxPages() int {
	return ClampPages(f.maxPages)
}

// SetMaxPages stores n clamped into [MinPages, MaxPages].
func (f *Filter) SetMaxPages(n int) {
	f.maxPages = ClampPages(n)
}

// WithMaxPages returns a copy with the page cap set
func (f Filter) WithMaxPages(n int) Filter {
	f.SetMaxPages(n)
	return f
}

// ClampPages clamps n into [MinPages, MaxPages].
func ClampPages(n int) int {
	if n < MinPages {
		return MinPages
	}
	if n > MaxPages {
		return MaxPages
	}
	return n
}
