// Package main implements the texture pool trace replay tool
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/cli"
	"github.com/retroenv/texpool/internal/config"
	"github.com/retroenv/texpool/internal/fileprocessor"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			fileprocessor.PrintBanner(logger, opts, version, commit, date)
			if usageErr.Error() != "" {
				logger.Error(usageErr.Error())
			}
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	fileprocessor.PrintBanner(logger, opts, version, commit, date)

	if err := fileprocessor.ProcessTrace(ctx, logger, opts, os.Stdout); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Replaying failed", log.Err(err))
		os.Exit(1)
	}
}
