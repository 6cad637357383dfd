package gui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/waldl/internal"
	"codeberg.org/snonux/waldl/internal/cli"
	"codeberg.org/snonux/waldl/internal/search"
	"codeberg.org/snonux/waldl/internal/session"
	"codeberg.org/snonux/waldl/internal/thumbnail"
)

// Number of columns of the result grid
const gridColumns = 4

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// UI elements
	queryEntry     *CustomEntry
	searchButton   *ttwidget.Button
	reloadButton   *ttwidget.Button
	helpButton     *ttwidget.Button
	categorySelect *widget.Select
	puritySelect   *widget.Select
	ratioSelect    *widget.Select
	maxPagesEntry  *widget.Entry
	statusLabel    *widget.Label
	dirLabel       *widget.Label
	grid           *fyne.Container
	gridScroll     *container.Scroll
	logViewer      *LogViewer

	// State management, only touched on the UI goroutine
	results        []search.ImageResult
	tiles          []*ThumbnailTile
	tileGeneration uint64
	searching      bool

	// Core
	session *session.Session
	loader  *ThumbnailLoader
	logger  *slog.Logger

	// Configuration
	config *Config

	// Background processing
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config holds GUI application configuration
type Config struct {
	Settings  *session.Settings
	LogConfig *cli.LogConfig
	LogOutput io.Writer // Log lines are also written here
}

// DefaultConfig returns default GUI configuration
func DefaultConfig() *Config {
	return &Config{
		Settings:  session.DefaultSettings(),
		LogConfig: &cli.LogConfig{Level: "info"},
		LogOutput: os.Stderr,
	}
}

// New creates a new GUI application
func New(config *Config) *Application {
	if config == nil {
		config = DefaultConfig()
	} else {
		// Fill in missing fields with defaults
		defaults := DefaultConfig()
		if config.Settings == nil {
			config.Settings = defaults.Settings
		}
		if config.LogConfig == nil {
			config.LogConfig = defaults.LogConfig
		}
		if config.LogOutput == nil {
			config.LogOutput = defaults.LogOutput
		}
	}

	myApp := app.NewWithID("org.codeberg.snonux.waldl")
	myApp.SetIcon(GetAppIcon())

	return newApplication(myApp, config)
}

func newApplication(myApp fyne.App, config *Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	a := &Application{
		app:    myApp,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	// Log lines go to the configured output and the log panel
	a.logViewer = NewLogViewer()
	a.logger = config.LogConfig.Configure(a.logViewer.Writer(config.LogOutput))

	a.session = session.New(config.Settings, a.logger)
	a.loader = NewThumbnailLoader(ctx, a.session, a.onThumbnailLoaded)

	a.setupUI()

	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("waldl v%s - Wallhaven Wallpapers", internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(800, 700))

	filter := a.session.Filter()

	// Search input
	a.queryEntry = NewCustomEntry()
	a.queryEntry.SetPlaceHolder("Search wallpapers...")
	a.queryEntry.SetText(filter.Query)
	a.queryEntry.OnSubmitted = func(string) {
		a.onSearch()
		a.window.Canvas().Unfocus()
	}
	a.queryEntry.SetOnEscape(func() {
		a.window.Canvas().Unfocus()
	})

	// Buttons (tooltips will be set after tooltip layer is created)
	a.searchButton = ttwidget.NewButtonWithIcon("", theme.SearchIcon(), a.onSearch)
	a.reloadButton = ttwidget.NewButtonWithIcon("", theme.ViewRefreshIcon(), a.onReloadThumbnails)
	a.helpButton = ttwidget.NewButtonWithIcon("", theme.HelpIcon(), a.onShowHotkeys)

	inputSection := container.NewBorder(
		nil, nil,
		nil,
		container.NewHBox(a.searchButton, a.reloadButton, a.helpButton),
		a.queryEntry,
	)

	// Filter presets
	a.categorySelect = newPresetSelect(categoryPresets, filter.Categories.String(), func(bits string) {
		if c, err := search.ParseCategories(bits); err == nil {
			a.session.UpdateFilter(func(f *search.Filter) { f.Categories = c })
		}
	})
	a.puritySelect = newPresetSelect(purityPresets, filter.Purity.String(), func(bits string) {
		if p, err := search.ParsePurity(bits); err == nil {
			a.session.UpdateFilter(func(f *search.Filter) { f.Purity = p })
		}
	})
	a.ratioSelect = newPresetSelect(ratioPresets, filter.Ratio.Param(), func(value string) {
		if r, err := search.ParseAspectRatio(value); err == nil {
			a.session.UpdateFilter(func(f *search.Filter) { f.Ratio = r })
		}
	})

	a.maxPagesEntry = widget.NewEntry()
	a.maxPagesEntry.SetText(strconv.Itoa(filter.MaxPages()))
	a.maxPagesEntry.OnChanged = a.onMaxPagesChanged
	a.maxPagesEntry.OnSubmitted = func(string) {
		a.maxPagesEntry.SetText(strconv.Itoa(a.session.Filter().MaxPages()))
		a.window.Canvas().Unfocus()
	}

	filterSection := container.New(layout.NewFormLayout(),
		widget.NewLabel("Categories:"), a.categorySelect,
		widget.NewLabel("Purity:"), a.puritySelect,
		widget.NewLabel("Ratio:"), a.ratioSelect,
		widget.NewLabel("Max pages:"), a.maxPagesEntry,
	)

	// Result grid
	a.grid = container.NewGridWithColumns(gridColumns)
	a.gridScroll = container.NewVScroll(a.grid)

	displaySection := container.NewVSplit(a.gridScroll, a.logViewer)
	displaySection.SetOffset(0.8)

	// Status section
	a.statusLabel = widget.NewLabel("Ready")
	a.statusLabel.Wrapping = fyne.TextWrapWord
	a.dirLabel = widget.NewLabel("Download directory: " + a.session.DownloadDir())
	a.dirLabel.TextStyle = fyne.TextStyle{Italic: true}

	statusSection := container.NewVBox(
		widget.NewSeparator(),
		a.dirLabel,
		a.statusLabel,
	)

	content := container.NewBorder(
		container.NewVBox(
			inputSection,
			filterSection,
			widget.NewSeparator(),
		),
		statusSection,
		nil, nil,
		displaySection,
	)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))

	// Now that tooltip layer is created, set all tooltips
	a.setupTooltips()

	a.window.SetOnClosed(func() {
		a.cancel()
		a.loader.Stop()
		a.wg.Wait()
	})

	// Set up keyboard shortcuts
	a.setupKeyboardShortcuts()
}

// Run starts the GUI application. A prefilled query is searched as soon as
// the window is up.
func (a *Application) Run() {
	if a.hasStartupQuery() {
		a.app.Lifecycle().SetOnStarted(a.onSearch)
	}
	a.window.ShowAndRun()
}

func (a *Application) hasStartupQuery() bool {
	return strings.TrimSpace(a.queryEntry.Text) != ""
}

// setupTooltips sets up all tooltips after the tooltip layer has been created
func (a *Application) setupTooltips() {
	a.searchButton.SetToolTip("Search (Enter)")
	a.reloadButton.SetToolTip("Retry pending thumbnails (r)")
	a.helpButton.SetToolTip("Show hotkeys (h)")
}

// onSearch runs a search with the current filter on a background goroutine
func (a *Application) onSearch() {
	if a.searching {
		return
	}
	a.searching = true
	a.searchButton.Disable()

	query := strings.TrimSpace(a.queryEntry.Text)
	a.session.UpdateFilter(func(f *search.Filter) { f.Query = query })
	a.updateStatus("Searching...")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		_, err := a.session.Search(a.ctx, func(done, planned int) {
			fyne.Do(func() {
				a.updateStatus(fmt.Sprintf("Loading page %d/%d...", done, planned))
			})
		})
		if err != nil && a.ctx.Err() != nil {
			return
		}

		snap := a.session.Snapshot()
		fyne.Do(func() {
			a.searching = false
			a.searchButton.Enable()
			a.renderResults(snap)
		})
	}()
}

// renderResults replaces the grid with one tile per result
func (a *Application) renderResults(snap session.Snapshot) {
	a.results = snap.Results
	a.tileGeneration = snap.Generation
	a.tiles = make([]*ThumbnailTile, len(snap.Results))

	objects := make([]fyne.CanvasObject, len(snap.Results))
	for i, r := range snap.Results {
		tile := NewThumbnailTile(r.FullImageURL, a.onTileTapped)
		tile.SetToolTip(r.FullImageURL)
		a.tiles[i] = tile
		objects[i] = tile
	}
	a.grid.Objects = objects
	a.grid.Refresh()
	a.gridScroll.ScrollToTop()

	a.updateStatus(snap.Status)
	a.loadPendingThumbnails()
}

// loadPendingThumbnails fills tiles from the cache and queues the rest
func (a *Application) loadPendingThumbnails() {
	for i, tile := range a.tiles {
		if tile.Loaded() {
			continue
		}
		url := a.results[i].ThumbnailURL
		if h, ok := a.session.CachedThumbnail(url); ok {
			tile.SetImage(h.Image)
			continue
		}
		a.loader.Enqueue(a.tileGeneration, i, url)
	}
}

// onThumbnailLoaded runs on the loader goroutine
func (a *Application) onThumbnailLoaded(job *ThumbnailJob, handle *thumbnail.Handle) {
	fyne.Do(func() {
		if job.Generation != a.tileGeneration || job.Index >= len(a.tiles) {
			return
		}
		tile := a.tiles[job.Index]
		if handle == nil {
			tile.SetPending()
			return
		}
		tile.SetImage(handle.Image)
	})
}

// onReloadThumbnails retries every tile that is still pending
func (a *Application) onReloadThumbnails() {
	a.loadPendingThumbnails()
}

// onTileTapped downloads the full-size image behind a tile
func (a *Application) onTileTapped(fullURL string) {
	a.updateStatus("Downloading...")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		status := session.DownloadStatus(a.session.Download(a.ctx, fullURL))
		fyne.Do(func() {
			a.updateStatus(status)
		})
	}()
}

// onMaxPagesChanged ignores text that is not a number and clamps the rest
func (a *Application) onMaxPagesChanged(text string) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return
	}
	a.session.UpdateFilter(func(f *search.Filter) { f.SetMaxPages(n) })
}

func (a *Application) updateStatus(message string) {
	a.statusLabel.SetText(message)
}

// onShowHotkeys shows the keyboard shortcuts
func (a *Application) onShowHotkeys() {
	dialog.ShowInformation("Hotkeys", strings.Join([]string{
		"/ or s   Focus search field",
		"Enter    Search",
		"r        Retry pending thumbnails",
		"h        Show this help",
		"q        Quit",
		"Escape   Leave the focused field",
	}, "\n"), a.window)
}

// setupKeyboardShortcuts sets up keyboard shortcuts for the application
func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedRune(func(r rune) {
		// If an input is focused, let the character be typed normally
		if a.window.Canvas().Focused() != nil {
			return
		}

		switch r {
		case '/', 's', 'S':
			a.window.Canvas().Focus(a.queryEntry)
		case 'r', 'R':
			a.onReloadThumbnails()
		case 'h', 'H':
			a.onShowHotkeys()
		case 'q', 'Q':
			a.window.Close()
		}
	})

	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			a.window.Canvas().Unfocus()
		}
	})
}
