package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/aerosim/internal/config"
	"github.com/san-kum/aerosim/internal/metrics"
	"github.com/san-kum/aerosim/internal/mission"
	"github.com/san-kum/aerosim/internal/segments"
	"github.com/san-kum/aerosim/internal/storage"
	"github.com/san-kum/aerosim/internal/tui"
	"github.com/san-kum/aerosim/internal/vehicle"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

// loadConfig reads a mission file, falling back to a preset name.
func loadConfig(arg string) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(arg); err == nil {
		cfg, err = config.Load(arg)
		if err != nil {
			return nil, err
		}
	} else if cfg = config.GetPreset(arg); cfg == nil {
		return nil, fmt.Errorf("no mission file or preset named %q", arg)
	}

	env.Apply(cfg)
	if controlPoints > 0 {
		cfg.Numerics.ControlPoints = controlPoints
	}
	if maxEvaluations > 0 {
		cfg.Solver.MaxEvaluations = maxEvaluations
	}
	if haltOnFailure {
		cfg.HaltOnFailure = true
	}
	return cfg, nil
}

type flight struct {
	cfg      *config.Config
	mission  *mission.Mission
	aircraft string
}

func buildFlights(args []string, cache *vehicle.Cache, observers ...mission.Observer) ([]flight, error) {
	reg := segments.NewRegistry()
	flights := make([]flight, 0, len(args))
	for _, arg := range args {
		cfg, err := loadConfig(arg)
		if err != nil {
			return nil, err
		}
		m, err := config.Build(cfg, config.Options{Registry: reg, Cache: cache, Logger: logger})
		if err != nil {
			return nil, err
		}
		m.AddObserver(mission.NewLoggingObserver(logger))
		for _, o := range observers {
			m.AddObserver(o)
		}
		v, _ := cfg.ResolveVehicle()
		flights = append(flights, flight{cfg: cfg, mission: m, aircraft: v.Name})
	}
	return flights, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runMission(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	flights, err := buildFlights(args, vehicle.NewCache())
	if err != nil {
		return err
	}
	f := flights[0]
	start := time.Now()
	res, err := f.mission.Evaluate(ctx)
	if res != nil {
		report(f, res, time.Since(start))
		if save {
			if serr := saveRun(f, res); serr != nil {
				return serr
			}
		}
	}
	return err
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheusObserver(reg)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "err", err)
			}
		}()
		defer srv.Close()
	}

	flights, err := buildFlights(args, vehicle.NewCache(), prom)
	if err != nil {
		return err
	}
	missions := make([]*mission.Mission, len(flights))
	for i, f := range flights {
		missions[i] = f.mission
	}

	start := time.Now()
	results, runErr := mission.RunAll(ctx, missions, workers)
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MISSION\tSEGMENTS\tFAILED\tFUEL\tRANGE\tBLOCK")
	for i, res := range results {
		if res == nil {
			continue
		}
		sum := metrics.Summarize(res)
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f kg\t%.1f km\t%.1f min\n",
			res.Mission, len(res.Segments), len(res.Failed()),
			sum["fuel_burned"], sum["range"]/1000, sum["block_time"]/60)
		if save {
			if err := saveRun(flights[i], res); err != nil {
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d missions in %s\n", len(results), elapsed.Round(time.Millisecond))
	return runErr
}

func watchMission(cmd *cobra.Command, args []string) error {
	flights, err := buildFlights(args, vehicle.NewCache())
	if err != nil {
		return err
	}
	f := flights[0]
	start := time.Now()
	res, err := tui.Watch(cmd.Context(), f.mission)
	if res != nil {
		report(f, res, time.Since(start))
		if save {
			if serr := saveRun(f, res); serr != nil {
				return serr
			}
		}
	}
	return err
}

func report(f flight, res *mission.Results, elapsed time.Duration) {
	fmt.Println(headStyle.Render(fmt.Sprintf("%s  %s", res.Mission, f.aircraft)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEGMENT\tKIND\tSTATUS\tEVALS\tRESIDUAL")
	for _, r := range res.Segments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2e\n", r.Name, r.Kind, status(r), r.Evaluations, r.Residual)
	}
	w.Flush()

	sum := metrics.Summarize(res)
	fmt.Printf("\nfuel %.1f kg  range %.1f km  block %.1f min  evaluations %.0f  (%s)\n",
		sum["fuel_burned"], sum["range"]/1000, sum["block_time"]/60, sum["evaluations"], elapsed.Round(time.Millisecond))
}

func status(r mission.SegmentResult) string {
	s := r.Status()
	switch s {
	case "converged":
		return okStyle.Render(s)
	case "not_converged", "skipped":
		return warnStyle.Render(s)
	default:
		return errStyle.Render(s)
	}
}

func saveRun(f flight, res *mission.Results) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Save(f.aircraft, res, metrics.Summarize(res))
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}
