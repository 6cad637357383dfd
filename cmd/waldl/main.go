package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"codeberg.org/snonux/waldl/internal/cli"
	"codeberg.org/snonux/waldl/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command and subcommands
	rootCmd := cli.CreateRootCommand(flags)
	searchCmd := cli.CreateSearchCommand(flags)
	downloadCmd := cli.CreateDownloadCommand(flags)
	rootCmd.AddCommand(searchCmd, downloadCmd)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run functions
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		p, err := newProcessor(flags)
		if err != nil {
			return err
		}
		return p.RunGUIMode(strings.Join(args, " "))
	}
	searchCmd.RunE = func(cmd *cobra.Command, args []string) error {
		p, err := newProcessor(flags)
		if err != nil {
			return err
		}
		return p.ProcessSearch(cmd.Context(), strings.Join(args, " "))
	}
	downloadCmd.RunE = func(cmd *cobra.Command, args []string) error {
		p, err := newProcessor(flags)
		if err != nil {
			return err
		}
		if flags.BatchFile != "" {
			return p.ProcessBatch(cmd.Context(), args)
		}
		return p.ProcessDownloads(cmd.Context(), args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newProcessor(flags *cli.Flags) (*processor.Processor, error) {
	settings, err := cli.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := cli.LoadLogConfig()
	logger := logCfg.Configure(os.Stderr)
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		logger.Warn("failed to set GOMAXPROCS", "error", err)
	}

	return processor.NewProcessor(flags, settings, logCfg), nil
}
