package main

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/partsim/internal/config"
	"github.com/vkngwrapper/partsim/memory"
	"github.com/vkngwrapper/partsim/trace"
	"golang.org/x/exp/slog"
)

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.HandlerOptions{Level: level}.NewTextHandler(os.Stderr)).
		With(slog.String("run", uuid.NewString()))

	return runSimulation(cmd.Context(), logger, cmd.OutOrStdout(), args[0], cfg, printStats)
}

// resolveConfig starts from the config file, if any, and applies every flag the user set explicitly
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("strategy") || configPath == "" {
		cfg.Strategy = strategy
	}
	if flags.Changed("trace") || configPath == "" {
		cfg.TracePath = tracePath
	}
	if flags.Changed("max-ticks") || configPath == "" {
		cfg.MaxTicks = maxTicks
	}
	if flags.Changed("total-memory") || configPath == "" {
		cfg.TotalMemory = totalMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runSimulation deletes any stale trace, loads the input, and ticks until the backlog drains
func runSimulation(ctx context.Context, logger *slog.Logger, out io.Writer, inputPath string, cfg *config.Config, withStats bool) error {
	strategy, err := cfg.AllocationStrategy()
	if err != nil {
		return err
	}

	if err := trace.RemoveStale(cfg.TracePath); err != nil {
		return err
	}

	traceWriter, err := trace.OpenFile(cfg.TracePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := traceWriter.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close trace", slog.Any("error", closeErr))
		}
	}()

	mem, err := memory.New(logger, inputPath, memory.CreateOptions{
		TotalMemory: cfg.TotalMemory,
		Trace:       traceWriter,
	})
	if err != nil {
		return errors.Wrapf(err, "could not load %s", inputPath)
	}

	ticks, runErr := mem.RunToCompletion(ctx, strategy, cfg.MaxTicks)
	logger.LogAttrs(ctx, slog.LevelInfo, "simulation finished",
		slog.String("strategy", strategy.String()),
		slog.Int("ticks", ticks),
		slog.Int("placements", mem.Counters().Placements),
		slog.Int("completions", mem.Counters().Completions),
		slog.String("trace", traceWriter.Path()),
	)

	if withStats {
		writer := jwriter.NewWriter()
		mem.PrintDetailedMap(&writer)
		if err := writer.Error(); err != nil {
			return errors.Wrap(err, "failed to build stats")
		}
		if _, err := out.Write(append(writer.Bytes(), '\n')); err != nil {
			return errors.Wrap(err, "failed to print stats")
		}
	}

	return runErr
}
