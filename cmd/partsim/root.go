package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath  string
	strategy    string
	tracePath   string
	maxTicks    int
	totalMemory int
	printStats  bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "partsim <input-file>",
	Short: "Simulate dynamic partitioned memory allocation",
	Long: `partsim simulates best-fit and worst-fit placement of processes into a
fixed-size memory region. The input file lists one process per line as
"id arrival_time memory_required runtime". Each tick of the simulation is
appended to a trace file, which is deleted before the run starts.`,
	Version:       "0.1.0",
	Args:          checkInputArg,
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML file with simulation settings")
	rootCmd.Flags().StringVarP(&strategy, "strategy", "s", "best-fit", "Placement strategy: best-fit or worst-fit")
	rootCmd.Flags().StringVarP(&tracePath, "trace", "o", "output.txt", "Trace file written one line per tick")
	rootCmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "Stop after this many ticks while processes wait (0 for no limit)")
	rootCmd.Flags().IntVar(&totalMemory, "total-memory", 2000, "Size of the simulated memory region")
	rootCmd.Flags().BoolVar(&printStats, "stats", false, "Print the final layout and counters as JSON")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every placement and completion")
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// checkInputArg requires exactly one argument naming an existing input file
func checkInputArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.Newf("expected exactly 1 argument naming the input file, got %d\nUsage: %s", len(args), cmd.UseLine())
	}

	info, err := os.Stat(args[0])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(err, "input file %s does not exist", args[0])
		}
		return errors.Wrapf(err, "input file %s cannot be accessed", args[0])
	}
	if info.IsDir() {
		return errors.Newf("input file %s is a directory", args[0])
	}

	return nil
}
