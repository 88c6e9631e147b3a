package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/aerosim/internal/config"
	"github.com/san-kum/aerosim/internal/optim"
	"github.com/san-kum/aerosim/internal/segments"
	"github.com/san-kum/aerosim/internal/vehicle"
)

// parseAxis reads segment.param=v1,v2,...
func parseAxis(s string) (optim.Axis, error) {
	key, list, ok := strings.Cut(s, "=")
	if !ok {
		return optim.Axis{}, fmt.Errorf("axis %q: want segment.param=v1,v2", s)
	}
	seg, param, ok := strings.Cut(key, ".")
	if !ok || seg == "" || param == "" {
		return optim.Axis{}, fmt.Errorf("axis %q: want segment.param", key)
	}
	axis := optim.Axis{Segment: seg, Param: param}
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return optim.Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		axis.Values = append(axis.Values, v)
	}
	return axis, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	axes := make([]optim.Axis, 0, len(sweepAxes))
	for _, a := range sweepAxes {
		axis, err := parseAxis(a)
		if err != nil {
			return err
		}
		axes = append(axes, axis)
	}

	opts := config.Options{Registry: segments.NewRegistry(), Cache: vehicle.NewCache(), Logger: logger}
	best, points, err := optim.NewGridSearch(axes...).Search(ctx, cfg, objective, opts, workers)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PARAMS\tCONVERGED\t%s\n", strings.ToUpper(objective))
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%t\t%.4g\n", formatParams(p.Params), p.Converged, p.Value)
	}
	w.Flush()
	if err != nil {
		return err
	}
	fmt.Printf("\nbest %s: %s = %.4g\n", formatParams(best.Params), objective, best.Value)
	return nil
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}
