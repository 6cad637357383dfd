package session

import (
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/waldl/internal/download"
	"codeberg.org/snonux/waldl/internal/fetch"
	"codeberg.org/snonux/waldl/internal/search"
)

// Settings holds everything needed to build a Session
type Settings struct {
	APIURL   string
	Filter   search.Filter
	Download download.DownloadOptions
	Network  fetch.Config
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() *Settings {
	return &Settings{
		APIURL:   search.DefaultBaseURL,
		Filter:   search.DefaultFilter(),
		Download: *download.DefaultDownloadOptions(DefaultDownloadDir()),
		Network:  *fetch.DefaultConfig(),
	}
}

// DefaultDownloadDir returns the platform download folder: $XDG_DOWNLOAD_DIR,
// then ~/Downloads, then the current directory.
func DefaultDownloadDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_DOWNLOAD_DIR")); dir != "" {
		return expandHome(dir)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "Downloads")
	}
	return "."
}

// expandHome resolves a leading ~ or $HOME as found in user-dirs.dirs
func expandHome(dir string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	switch {
	case dir == "~":
		return home
	case strings.HasPrefix(dir, "~/"):
		return filepath.Join(home, dir[2:])
	case strings.HasPrefix(dir, "$HOME"):
		return filepath.Join(home, strings.TrimPrefix(dir, "$HOME"))
	}
	return dir
}
