package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/config"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/services"
)

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	meta, content, err := services.ValidateFile(opts.File, cfg.Upload.MaxFileSize)
	if err != nil {
		return err
	}
	renderFile(stdout, meta)

	transport := services.NewTransport(opts.APIURL, cfg.API.Timeout, logger)

	if opts.JDPath != "" {
		return compare(ctx, stdout, transport, meta.Name, content, opts.JDPath)
	}
	return analyze(ctx, stdout, cfg, transport, logger, meta.Name, content)
}

func analyze(
	ctx context.Context,
	w io.Writer,
	cfg *config.Config,
	transport *services.Transport,
	logger *slog.Logger,
	name string,
	content []byte,
) error {
	session := services.NewSession(transport, transport.FetchResult, services.SessionConfig{
		Policy: services.PollPolicy{
			Interval:       cfg.Poll.Interval,
			MaxAttempts:    cfg.Poll.MaxAttempts,
			DoneStatuses:   cfg.Poll.DoneStatuses,
			FailedStatuses: cfg.Poll.FailedStatuses,
		},
		AnalyzeDelay:  cfg.Progress.AnalyzeDelay,
		FeedbackDelay: cfg.Progress.FeedbackDelay,
		Logger:        logger,
		OnState:       progressPrinter(w),
	})

	st, err := session.Run(ctx, name, content)
	// Stop the progress timers before writing the report.
	session.Close()
	if st.HasView {
		renderView(w, st.View, transport.DownloadURL(st.Job.JobID), st.Stale)
	}
	if err != nil {
		if st.Job.JobID != "" {
			return fmt.Errorf("job %s: %w", st.Job.JobID, err)
		}
		return err
	}
	return nil
}

func compare(ctx context.Context, w io.Writer, transport *services.Transport, name string, content []byte, jdPath string) error {
	jd, err := os.ReadFile(jdPath)
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}

	fmt.Fprintln(w, "🔍 Comparing against the job description...")
	raw, err := transport.Compare(ctx, name, content, string(jd))
	if err != nil {
		return err
	}
	renderComparison(w, raw)
	return nil
}
