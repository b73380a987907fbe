package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/eugenenazirov/sidesplit/internal/allocator"
	"github.com/eugenenazirov/sidesplit/internal/config"
	"github.com/eugenenazirov/sidesplit/internal/planner"
	"github.com/eugenenazirov/sidesplit/internal/progress"
	"github.com/eugenenazirov/sidesplit/internal/report"
	"github.com/eugenenazirov/sidesplit/internal/track"
)

type splitOptions struct {
	csv      bool
	plain    bool
	progress bool

	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
}

func runSplit(cfg config.Config, opts splitOptions, logger *zap.Logger) error {
	if opts.fs == nil {
		opts.fs = afero.NewOsFs()
	}
	if opts.stdout == nil {
		opts.stdout = os.Stdout
	}
	if opts.stderr == nil {
		opts.stderr = os.Stderr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return split(ctx, cfg, opts, logger)
}

func split(ctx context.Context, cfg config.Config, opts splitOptions, logger *zap.Logger) error {
	if err := cfg.ValidateSplit(); err != nil {
		return err
	}

	tracks, err := track.LoadFile(opts.fs, cfg.InputFile)
	if err != nil {
		return err
	}

	var countdown *progress.Countdown
	searchOpts := []allocator.Option{allocator.WithLogger(logger.Named("allocator"))}
	if opts.progress {
		countdown = progress.Start(opts.stderr, time.Duration(cfg.Allocation.DeadlineSeconds)*time.Second)
		searchOpts = append(searchOpts, allocator.WithImprovementHook(func(imp allocator.Improvement) {
			countdown.Improved(imp.Score)
		}))
	}

	p := planner.New(
		planner.WithLogger(logger),
		planner.WithAllocator(planner.StrategySearch, allocator.New(searchOpts...)),
		planner.WithAllocator(planner.StrategySequential, allocator.NewSequential(searchOpts...)),
	)

	alloc := cfg.Allocation
	plan, err := p.Plan(ctx, planner.Request{
		Tracks:        tracks,
		Capacity:      alloc.Capacity,
		Sides:         alloc.Sides,
		Even:          alloc.Even,
		BudgetSeconds: alloc.DeadlineSeconds,
		Threshold:     alloc.Threshold,
		Strategy:      alloc.Strategy,
	})
	if countdown != nil {
		countdown.Stop()
	}
	if err != nil {
		return err
	}
	if err := plan.Err(); err != nil {
		return err
	}

	if opts.csv {
		return report.CSV(opts.stdout, plan)
	}
	if err := report.Summary(opts.stdout, plan); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := report.Text(opts.stdout, plan, opts.plain); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
