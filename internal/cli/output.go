package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"codeberg.org/snonux/waldl/internal/search"
)

var (
	accentColor  = lipgloss.Color("39")  // Cyan
	dimColor     = lipgloss.Color("240") // Gray
	successColor = lipgloss.Color("82")  // Green
	errorColor   = lipgloss.Color("196") // Red

	// SummaryStyle renders the search summary line
	SummaryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	// DimStyle renders thumbnail URLs and other metadata
	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	// SuccessStyle renders saved paths
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// ErrorStyle renders failure lines
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// PrintResult writes the summary followed by one line per result: the full
// image URL and, dimmed, its thumbnail URL.
func PrintResult(w io.Writer, result *search.Result) {
	fmt.Fprintln(w, SummaryStyle.Render(result.Summary()))
	for i, item := range result.Items {
		fmt.Fprintf(w, "%4d  %s  %s\n", i+1, item.FullImageURL, DimStyle.Render(item.ThumbnailURL))
	}
}

// PrintSaved reports one finished download
func PrintSaved(w io.Writer, url, path string) {
	fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("saved"), path)
	fmt.Fprintf(w, "      %s\n", DimStyle.Render(url))
}

// PrintFailed reports one failed download
func PrintFailed(w io.Writer, url string, err error) {
	fmt.Fprintf(w, "%s %s: %v\n", ErrorStyle.Render("failed"), url, err)
}

// PageProgress draws a page progress bar. The bar is created on the first
// report because the page count is only known after page 1.
type PageProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewPageProgress creates a progress reporter writing to w
func NewPageProgress(w io.Writer) *PageProgress {
	return &PageProgress{w: w}
}

// Report implements search.ProgressFunc
func (p *PageProgress) Report(done, planned int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions64(
			int64(planned),
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("Loading pages"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	p.bar.Set(done)
}

// Finish completes and clears the bar
func (p *PageProgress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
