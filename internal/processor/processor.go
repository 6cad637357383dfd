package processor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"codeberg.org/snonux/waldl/internal/batch"
	"codeberg.org/snonux/waldl/internal/cli"
	"codeberg.org/snonux/waldl/internal/gui"
	"codeberg.org/snonux/waldl/internal/search"
	"codeberg.org/snonux/waldl/internal/session"
)

// Processor handles the command logic
type Processor struct {
	flags    *cli.Flags
	settings *session.Settings
	logCfg   *cli.LogConfig

	out    io.Writer
	errOut io.Writer
}

// NewProcessor creates a new processor writing to stdout and stderr
func NewProcessor(flags *cli.Flags, settings *session.Settings, logCfg *cli.LogConfig) *Processor {
	if settings == nil {
		settings = session.DefaultSettings()
	}
	if logCfg == nil {
		logCfg = &cli.LogConfig{Level: "info"}
	}
	return &Processor{
		flags:    flags,
		settings: settings,
		logCfg:   logCfg,
		out:      os.Stdout,
		errOut:   os.Stderr,
	}
}

// SetOutput redirects command output and logs
func (p *Processor) SetOutput(out, errOut io.Writer) {
	p.out = out
	p.errOut = errOut
}

func (p *Processor) newSession() (*session.Session, *slog.Logger) {
	logger := p.logCfg.Configure(p.errOut)
	return session.New(p.settings, logger), logger
}

// ProcessSearch runs one search and prints the summary and result URLs.
// An empty query keeps the configured one.
func (p *Processor) ProcessSearch(ctx context.Context, query string) error {
	sess, _ := p.newSession()
	if query = strings.TrimSpace(query); query != "" {
		sess.UpdateFilter(func(f *search.Filter) { f.Query = query })
	}

	var progress search.ProgressFunc
	if !p.flags.NoProgress {
		bar := cli.NewPageProgress(p.errOut)
		defer bar.Finish()
		progress = bar.Report
	}

	result, err := sess.Search(ctx, progress)
	if err != nil {
		fmt.Fprintln(p.errOut, cli.ErrorStyle.Render(sess.Status()))
		return fmt.Errorf("%s: %w", sess.Status(), err)
	}

	cli.PrintResult(p.out, result)
	return nil
}

// ProcessDownloads downloads every URL in order. A failed URL does not stop
// the rest; the returned error reports how many failed.
func (p *Processor) ProcessDownloads(ctx context.Context, urls []string) error {
	sess, logger := p.newSession()
	logger.Info("downloading", "count", len(urls), "directory", sess.DownloadDir())

	failed := 0
	for _, url := range urls {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		path, err := sess.Download(ctx, url)
		if err != nil {
			failed++
			cli.PrintFailed(p.out, url, err)
			continue
		}
		cli.PrintSaved(p.out, url, path)
	}

	fmt.Fprintf(p.out, "\nDownloaded %d of %d to %s\n", len(urls)-failed, len(urls), sess.DownloadDir())
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(urls))
	}
	return nil
}

// ProcessBatch downloads the URLs listed in the batch file followed by urls
func (p *Processor) ProcessBatch(ctx context.Context, urls []string) error {
	listed, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}
	return p.ProcessDownloads(ctx, append(listed, urls...))
}

// RunGUIMode launches the GUI application with query prefilled
func (p *Processor) RunGUIMode(query string) error {
	settings := *p.settings
	if query = strings.TrimSpace(query); query != "" {
		settings.Filter.Query = query
	}

	app := gui.New(&gui.Config{
		Settings:  &settings,
		LogConfig: p.logCfg,
		LogOutput: p.errOut,
	})
	app.Run()

	return nil
}
