package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/waldl/internal"
	"codeberg.org/snonux/waldl/internal/download"
	"codeberg.org/snonux/waldl/internal/search"
	"codeberg.org/snonux/waldl/internal/session"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "waldl [query]",
		Short: "Wallhaven wallpaper search and download",
		Long: `waldl searches wallhaven.cc, shows the results as a thumbnail grid
and saves the wallpaper you click to your download directory.

Examples:
  waldl                              # Launch the GUI (default)
  waldl mountains                    # Launch the GUI with a prefilled query
  waldl search "red car" --ratio 21x9
  waldl download https://w.wallhaven.cc/full/ab/wallhaven-abcdef.jpg
  waldl download --batch urls.txt`,
		Args:    cobra.ArbitraryArgs,
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

// CreateSearchCommand creates the headless search subcommand
func CreateSearchCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search wallhaven and print the result URLs",
		Args:  cobra.ArbitraryArgs,
	}
	cmd.Flags().BoolVar(&flags.NoProgress, "no-progress", false, "Do not draw the page progress bar")
	return cmd
}

// CreateDownloadCommand creates the headless download subcommand
func CreateDownloadCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [url...]",
		Short: "Download full-size images into the download directory",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && flags.BatchFile == "" {
				return fmt.Errorf("requires at least one URL or --batch")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Download URLs from file (one per line, # starts a comment)")
	return cmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	// Global flags
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.waldl.yaml)")
	pf.StringVar(&flags.APIURL, "api-url", flags.APIURL, "Wallhaven base URL")
	pf.StringVarP(&flags.DownloadDir, "output", "o", "", "Download directory (default: $XDG_DOWNLOAD_DIR or ~/Downloads)")

	// Search filter flags
	pf.StringVar(&flags.Categories, "categories", flags.Categories, "Category bits general/anime/people, e.g. 100 or 111")
	pf.StringVar(&flags.Purity, "purity", flags.Purity, "Purity bits sfw/sketchy/nsfw, e.g. 100 or 110")
	pf.StringVar(&flags.Ratio, "ratio", flags.Ratio, "Aspect ratio: any, 16x9 or 21x9")
	pf.IntVar(&flags.MaxPages, "max-pages", flags.MaxPages, "Maximum result pages to load (1 to 50)")

	// Download pipeline flags
	pf.StringVar(&flags.Policy, "policy", flags.Policy, "Download policy: native keeps the resolution, canvas resizes")
	pf.UintVar(&flags.CanvasWidth, "canvas-width", flags.CanvasWidth, "Canvas width for the canvas policy")
	pf.UintVar(&flags.CanvasHeight, "canvas-height", flags.CanvasHeight, "Canvas height for the canvas policy")
	pf.IntVar(&flags.JPEGQuality, "jpeg-quality", flags.JPEGQuality, "JPEG quality of saved wallpapers (1 to 100)")
	pf.Int64Var(&flags.MaxSize, "max-size", 0, "Reject full images larger than this many bytes (0 disables)")

	// Network flags
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP timeout per request (0 disables)")
	pf.StringVar(&flags.UserAgent, "user-agent", flags.UserAgent, "HTTP User-Agent header")
	pf.Uint32Var(&flags.BreakerFailures, "breaker-failures", 0, "Stop contacting a host after this many consecutive failures (0 disables)")
	pf.DurationVar(&flags.BreakerCooldown, "breaker-cooldown", flags.BreakerCooldown, "How long an open circuit breaker rejects requests")

	// Logging flags
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.LogJSON, "log-json", false, "Output logs in JSON format")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	viper.BindPFlag("api.url", pf.Lookup("api-url"))
	viper.BindPFlag("search.categories", pf.Lookup("categories"))
	viper.BindPFlag("search.purity", pf.Lookup("purity"))
	viper.BindPFlag("search.ratio", pf.Lookup("ratio"))
	viper.BindPFlag("search.max_pages", pf.Lookup("max-pages"))
	viper.BindPFlag("download.directory", pf.Lookup("output"))
	viper.BindPFlag("download.policy", pf.Lookup("policy"))
	viper.BindPFlag("download.canvas_width", pf.Lookup("canvas-width"))
	viper.BindPFlag("download.canvas_height", pf.Lookup("canvas-height"))
	viper.BindPFlag("download.jpeg_quality", pf.Lookup("jpeg-quality"))
	viper.BindPFlag("download.max_size", pf.Lookup("max-size"))
	viper.BindPFlag("network.timeout", pf.Lookup("timeout"))
	viper.BindPFlag("network.user_agent", pf.Lookup("user-agent"))
	viper.BindPFlag("network.breaker_failures", pf.Lookup("breaker-failures"))
	viper.BindPFlag("network.breaker_cooldown", pf.Lookup("breaker-cooldown"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.json", pf.Lookup("log-json"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".waldl" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".waldl")
	}

	// Environment variables, e.g. WALDL_SEARCH_MAX_PAGES
	viper.SetEnvPrefix("WALDL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// LoadSettings turns the merged flag, config file and environment state into
// session settings. Keys that are not set keep their defaults.
func LoadSettings() (*session.Settings, error) {
	s := session.DefaultSettings()

	if v := viper.GetString("api.url"); v != "" {
		s.APIURL = v
	}

	if v := viper.GetString("search.query"); v != "" {
		s.Filter.Query = v
	}
	if v := viper.GetString("search.categories"); v != "" {
		c, err := search.ParseCategories(v)
		if err != nil {
			return nil, err
		}
		s.Filter.Categories = c
	}
	if v := viper.GetString("search.purity"); v != "" {
		p, err := search.ParsePurity(v)
		if err != nil {
			return nil, err
		}
		s.Filter.Purity = p
	}
	if v := viper.GetString("search.ratio"); v != "" {
		r, err := search.ParseAspectRatio(v)
		if err != nil {
			return nil, err
		}
		s.Filter.Ratio = r
	}
	if viper.IsSet("search.max_pages") {
		s.Filter.SetMaxPages(viper.GetInt("search.max_pages"))
	}

	if v := viper.GetString("download.directory"); v != "" {
		s.Download.OutputDir = v
	}
	if v := viper.GetString("download.policy"); v != "" {
		p, err := download.ParsePolicy(v)
		if err != nil {
			return nil, err
		}
		s.Download.Policy = p
	}
	if viper.IsSet("download.canvas_width") {
		s.Download.CanvasWidth = viper.GetUint("download.canvas_width")
	}
	if viper.IsSet("download.canvas_height") {
		s.Download.CanvasHeight = viper.GetUint("download.canvas_height")
	}
	if viper.IsSet("download.jpeg_quality") {
		q := viper.GetInt("download.jpeg_quality")
		if q < 1 || q > 100 {
			return nil, fmt.Errorf("jpeg quality %d out of range 1..100", q)
		}
		s.Download.JPEGQuality = q
	}
	if viper.IsSet("download.max_size") {
		s.Download.MaxSizeBytes = viper.GetInt64("download.max_size")
	}

	if viper.IsSet("network.timeout") {
		s.Network.Timeout = viper.GetDuration("network.timeout")
	}
	if v := viper.GetString("network.user_agent"); v != "" {
		s.Network.UserAgent = v
	}
	if viper.IsSet("network.breaker_failures") {
		s.Network.BreakerFailures = viper.GetUint32("network.breaker_failures")
	}
	if viper.IsSet("network.breaker_cooldown") {
		s.Network.BreakerCooldown = viper.GetDuration("network.breaker_cooldown")
	}

	return s, nil
}
