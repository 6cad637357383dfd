package gui

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

//go:embed waldl_256.png
var iconData []byte

// GetAppIcon returns the application icon as a Fyne resource
func GetAppIcon() fyne.Resource {
	return &fyne.StaticResource{
		StaticName:    "waldl.png",
		StaticContent: iconData,
	}
}
