package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/aerosim/internal/config"
	"github.com/san-kum/aerosim/internal/logging"
	"github.com/san-kum/aerosim/internal/segments"
	"github.com/san-kum/aerosim/internal/vehicle"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	controlPoints  int
	maxEvaluations int
	haltOnFailure  bool
	save           bool
	workers        int
	metricsAddr    string
	field          string
	svgX           string
	svgOut         string
	objective      string
	sweepAxes      []string

	env    config.Env
	logger *slog.Logger
)

func main() {
	var err error
	env, err = config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "aerosim",
		Short:         "aircraft mission analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel, logFormat)
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(l)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", env.LogLevel, "log level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", env.LogFormat, "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [file|preset]",
		Short: "fly a mission",
		Args:  cobra.ExactArgs(1),
		RunE:  runMission,
	}
	missionFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "save the run")

	batchCmd := &cobra.Command{
		Use:   "batch [file|preset]...",
		Short: "fly independent missions concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	missionFlags(batchCmd)
	batchCmd.Flags().BoolVar(&save, "save", false, "save every run")
	batchCmd.Flags().IntVar(&workers, "workers", env.Workers, "missions in flight")
	batchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	watchCmd := &cobra.Command{
		Use:   "watch [file|preset]",
		Short: "fly a mission with a live view",
		Args:  cobra.ExactArgs(1),
		RunE:  watchMission,
	}
	missionFlags(watchCmd)
	watchCmd.Flags().BoolVar(&save, "save", false, "save the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a trajectory field",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&field, "field", "altitude", "trajectory field")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json, or a field profile as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgOut, "svg", "", "write an svg profile of --field against --x to this path")
	exportCmd.Flags().StringVar(&field, "field", "altitude", "profile field")
	exportCmd.Flags().StringVar(&svgX, "x", "range", "profile abscissa")

	sweepCmd := &cobra.Command{
		Use:   "sweep [file|preset]",
		Short: "grid search segment parameters",
		Long:  "Each --axis is segment.param=v1,v2,...; the converged point with the smallest --objective wins.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	missionFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepAxes, "axis", nil, "segment.param=v1,v2,...")
	sweepCmd.Flags().StringVar(&objective, "objective", "fuel_burned", "metric to minimize")
	sweepCmd.Flags().IntVar(&workers, "workers", env.Workers, "missions in flight")
	_ = sweepCmd.MarkFlagRequired("axis")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list mission presets, aircraft and segment types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("missions:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			fmt.Println("aircraft:")
			for _, v := range vehicle.PresetNames() {
				fmt.Printf("  %s\n", v)
			}
			fmt.Println("segments:")
			for _, k := range segments.NewRegistry().Kinds() {
				fmt.Printf("  %s\n", k)
			}
		},
	}

	rootCmd.AddCommand(runCmd, batchCmd, watchCmd, sweepCmd, listCmd, plotCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func missionFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&controlPoints, "control-points", 0, "control points per segment (0 keeps the mission file)")
	cmd.Flags().IntVar(&maxEvaluations, "max-evaluations", 0, "residual evaluations per segment (0 keeps the mission file)")
	cmd.Flags().BoolVar(&haltOnFailure, "halt-on-failure", false, "stop at the first segment that does not converge")
}
