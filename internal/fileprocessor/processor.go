// Package fileprocessor handles file loading and processing operations
package fileprocessor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/config"
	"github.com/retroenv/texpool/internal/dump"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/loader"
	"github.com/retroenv/texpool/internal/options"
	"github.com/retroenv/texpool/internal/replay"
	"github.com/retroenv/texpool/internal/report"
	"github.com/retroenv/texpool/internal/texpool"
)

// ProcessTrace replays the trace file of the options against a fresh texture pool
// and writes the slot report to the writer.
func ProcessTrace(ctx context.Context, logger *log.Logger, opts options.Program, writer io.Writer) error {
	filter, err := report.NewFilter(opts.Filter)
	if err != nil {
		return err
	}

	backend := gpu.NewHeadless()
	pool, err := Replay(ctx, logger, opts, backend)
	if err != nil {
		return err
	}

	rows := report.Rows(pool, filter)
	if !opts.NoReport {
		if err := report.Write(writer, rows); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if opts.Dump != "" {
		return Dump(logger, backend, opts, rows)
	}
	return nil
}

// Replay creates a texture pool on the backend, replays the trace file of the
// options against it and returns the resulting pool.
func Replay(ctx context.Context, logger *log.Logger, opts options.Program, backend gpu.Backend) (*texpool.Pool, error) {
	memory, err := os.ReadFile(opts.Memory)
	if err != nil {
		return nil, fmt.Errorf("reading memory image: %w", err)
	}

	trace, err := os.Open(opts.Trace)
	if err != nil {
		return nil, fmt.Errorf("opening trace file %s: %w", opts.Trace, err)
	}
	defer func() { _ = trace.Close() }()

	pool, err := config.CreatePool(logger, backend)
	if err != nil {
		return nil, err
	}
	levels := loader.New(logger, backend, pool, opts.Textures)

	replayer := replay.New(logger, pool, levels, memory, opts.SentinelValue)
	summary, err := replayer.Run(ctx, trace)
	if err != nil {
		return nil, fmt.Errorf("replaying trace: %w", err)
	}

	stats := pool.Stats()
	logger.Info("Trace replayed",
		log.Int("uploads", summary.Uploads),
		log.Int("copies", summary.Copies),
		log.Int("skipped_copies", summary.Skipped),
		log.Int("textures", stats.Textures),
		log.Int("placeholders", stats.Placeholders),
		log.Int("slots", stats.Slots))

	if opts.Verify {
		if err := pool.Verify(); err != nil {
			return nil, fmt.Errorf("verification failed: %w", err)
		}
		logger.Info("Verification successful")
	}
	return pool, nil
}

// Dump exports the textures of the report rows to the dump directory of the options.
func Dump(logger *log.Logger, images gpu.Imager, opts options.Program, rows []report.Row) error {
	n, err := dump.New(logger, images, opts.Dump, opts.MaxEdge).Write(rows)
	if err != nil {
		return fmt.Errorf("dumping textures: %w", err)
	}
	logger.Info("Textures exported", log.String("dir", opts.Dump), log.Int("files", n))
	return nil
}

// PrintBanner logs the program version.
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("texpool", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
