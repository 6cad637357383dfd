package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
)

// Tile size of the result grid
var tileSize = fyne.NewSize(150, 100)

// ThumbnailTile is one cell of the result grid: a preview image on top of a
// flat button that downloads the full image when tapped.
type ThumbnailTile struct {
	widget.BaseWidget

	container   *fyne.Container
	button      *ttwidget.Button
	imageCanvas *canvas.Image
	placeholder *widget.Label

	fullURL string
	loaded  bool
}

// NewThumbnailTile creates a tile for fullURL. onTapped receives fullURL.
func NewThumbnailTile(fullURL string, onTapped func(string)) *ThumbnailTile {
	t := &ThumbnailTile{fullURL: fullURL}

	t.button = ttwidget.NewButton("", func() {
		if onTapped != nil {
			onTapped(t.fullURL)
		}
	})
	t.button.Importance = widget.LowImportance

	t.imageCanvas = canvas.NewImageFromImage(nil)
	t.imageCanvas.FillMode = canvas.ImageFillContain
	t.imageCanvas.ScaleMode = canvas.ImageScaleFastest
	t.imageCanvas.SetMinSize(tileSize)

	t.placeholder = widget.NewLabel("Loading...")
	t.placeholder.Alignment = fyne.TextAlignCenter

	t.container = container.NewStack(
		t.button,
		container.NewCenter(t.placeholder),
		t.imageCanvas,
	)

	t.ExtendBaseWidget(t)
	return t
}

// CreateRenderer implements fyne.Widget
func (t *ThumbnailTile) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.container)
}

// MinSize keeps every tile at the grid cell size
func (t *ThumbnailTile) MinSize() fyne.Size {
	return tileSize
}

// SetToolTip sets the hover text. Only valid once the tooltip layer exists.
func (t *ThumbnailTile) SetToolTip(text string) {
	t.button.SetToolTip(text)
}

// SetImage shows img. Must be called on the UI goroutine.
func (t *ThumbnailTile) SetImage(img image.Image) {
	t.imageCanvas.Image = img
	t.imageCanvas.Refresh()
	t.placeholder.Hide()
	t.loaded = true
}

// SetPending shows the not-yet-loaded state
func (t *ThumbnailTile) SetPending() {
	t.placeholder.SetText("Pending")
	t.placeholder.Show()
}

// Loaded reports whether an image is shown
func (t *ThumbnailTile) Loaded() bool {
	return t.loaded
}

// FullURL returns the full-size image URL the tile downloads
func (t *ThumbnailTile) FullURL() string {
	return t.fullURL
}
