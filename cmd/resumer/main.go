// Command resumer downloads one or more files, resuming partial
// downloads from where they stopped.
package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/adamwoolhether/resumer"
	"github.com/adamwoolhether/resumer/client"
	"github.com/adamwoolhether/resumer/client/download"
	"github.com/adamwoolhether/resumer/client/download/checkpoint"
	"github.com/adamwoolhether/resumer/internal/config"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitDownloadFailed = 1
	ExitInvalidArgs    = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	if err := downloadAll(ctx, cfg, logger); err != nil {
		logger.Error("downloads failed", "error", err)
		return ExitDownloadFailed
	}

	return ExitSuccess
}

// parseConfig builds the configuration from an optional YAML file, with
// command line flags taking precedence.
func parseConfig(args []string, stderr io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("resumer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML config file")
	rawURL := fs.String("url", "", "URL to download")
	output := fs.String("o", "", "Output file path")
	resume := fs.Bool("resume", false, "Resume from the bytes already in the output file")
	sum := fs.String("sha256", "", "Expected hex SHA-256 of the complete file")
	concurrent := fs.Int("c", 0, "Maximum concurrent downloads (0 keeps the config value)")
	bandwidth := fs.Int("bandwidth", 0, "Per download limit in bytes per second")
	checkpoints := fs.String("checkpoints", "", "bbolt file recording resume offsets")
	strict := fs.Bool("strict", false, "Fail resumed downloads the server does not answer with 206")
	progress := fs.Bool("progress", false, "Log transfer progress")
	verbose := fs.Bool("v", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: resumer [options]

Download files over HTTP, resuming partial downloads with a Range request.
Either pass -url and -o, or list downloads in a -config file.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(*configPath); err != nil {
			return config.Config{}, err
		}
	}

	if *rawURL != "" || *output != "" {
		cfg.Downloads = append(cfg.Downloads, config.Download{
			URL:    *rawURL,
			Output: *output,
			Resume: *resume,
			SHA256: *sum,
		})
	}
	if *concurrent > 0 {
		cfg.MaxConcurrent = *concurrent
	}
	if *bandwidth > 0 {
		cfg.Bandwidth = *bandwidth
	}
	if *checkpoints != "" {
		cfg.Checkpoints = *checkpoints
	}
	if *strict {
		cfg.StrictResume = true
	}
	if *progress {
		cfg.ProgressLog = true
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fs.Usage()
		return config.Config{}, err
	}

	return cfg, nil
}

// downloadAll runs every configured download and waits for all of them.
func downloadAll(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	clientOpts := []client.Option{
		client.WithLogger(logger),
		client.WithMaxConcurrent(cfg.MaxConcurrent),
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(cfg.Timeout))
	}
	if cfg.UserAgent != "" {
		clientOpts = append(clientOpts, client.WithUserAgent(cfg.UserAgent))
	}

	var execOpts []download.Option
	if cfg.ProgressLog {
		execOpts = append(execOpts, download.WithProgressLog())
	}
	if cfg.StrictResume {
		execOpts = append(execOpts, download.WithStrictResume())
	}
	if cfg.Bandwidth > 0 {
		execOpts = append(execOpts, download.WithBandwidth(cfg.Bandwidth))
	}

	var store *checkpoint.Store
	if cfg.Checkpoints != "" {
		var err error
		if store, err = checkpoint.Open(cfg.Checkpoints); err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("closing checkpoint store", "error", err)
			}
		}()
		execOpts = append(execOpts, download.WithCheckpoints(store))
	}

	exec, err := resumer.NewExecutor(clientOpts, execOpts...)
	if err != nil {
		return err
	}

	// A plain Group so one failed download does not cancel the others.
	var g errgroup.Group
	errs := make([]error, len(cfg.Downloads))
	for i, d := range cfg.Downloads {
		req := newRequest(ctx, d, store, logger)

		g.Go(func() error {
			var failure error
			h := exec.Enqueue(ctx, req, download.Callbacks{
				Failure: func(err error) { failure = err },
			})

			err := failure
			if h != nil {
				err = h.Wait()
			}
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", d.Output, err)
			}

			return errs[i]
		})
	}

	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}

	return nil
}

// newRequest turns a configured download into a request, resuming from the
// bytes already on disk when asked to, or when a checkpoint says so.
func newRequest(ctx context.Context, d config.Download, store *checkpoint.Store, logger *slog.Logger) download.Request {
	opts := []download.RequestOption{
		download.WithFilePath(d.Output),
		download.WithHeaders(d.Headers),
		download.WithChecksum(sha256.New, d.SHA256),
		download.WithTag(tagFor(d)),
	}

	resume := d.Resume
	if store != nil {
		if rec, err := store.Get(ctx, d.Output); err == nil && rec.URL == d.URL {
			logger.Info("found checkpoint", "path", d.Output, "completed", rec.CompletedBytes, "total", rec.TotalBytes)
			resume = true
		}
	}

	if resume {
		if info, err := os.Stat(d.Output); err == nil {
			opts = append(opts, download.WithCompletedBytes(info.Size()))
		}
	}

	return download.NewRequest(d.URL, opts...)
}

// tagFor returns the configured tag, or the output path when none is set.
func tagFor(d config.Download) string {
	if d.Tag != "" {
		return d.Tag
	}
	return d.Output
}
