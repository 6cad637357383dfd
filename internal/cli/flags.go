package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	APIURL      string
	DownloadDir string
	BatchFile   string
	NoProgress  bool

	// Search filter flags
	Categories string
	Purity     string
	Ratio      string
	MaxPages   int

	// Download pipeline flags
	Policy       string
	CanvasWidth  uint
	CanvasHeight uint
	JPEGQuality  int
	MaxSize      int64

	// Network flags
	Timeout         time.Duration
	UserAgent       string
	BreakerFailures uint32
	BreakerCooldown time.Duration

	// Logging flags
	LogLevel string
	LogJSON  bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		APIURL:          "https://wallhaven.cc",
		Categories:      "111",
		Purity:          "100",
		Ratio:           "any",
		MaxPages:        5,
		Policy:          "native",
		CanvasWidth:     3840,
		CanvasHeight:    2160,
		JPEGQuality:     75,
		Timeout:         30 * time.Second,
		UserAgent:       "waldl/0.3",
		BreakerCooldown: 30 * time.Second,
		LogLevel:        "info",
	}
}
