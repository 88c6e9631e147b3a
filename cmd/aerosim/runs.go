package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/aerosim/internal/export"
	"github.com/san-kum/aerosim/internal/storage"
)

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMISSION\tAIRCRAFT\tTIME\tSEGMENTS\tCONVERGED\tFUEL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\t%.1f kg\n",
			run.ID,
			run.Mission,
			run.Aircraft,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Segments,
			run.Converged,
			run.FuelBurned,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	data, err := traj.Column(field)
	if err != nil {
		return err
	}

	series := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			series = append(series, v)
		}
	}
	if len(series) == 0 {
		return fmt.Errorf("no %s data to plot", field)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mission: %s (%s)\n", meta.Mission, meta.Aircraft)
	fmt.Printf("points: %d\n\n", len(series))

	graph := asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(field),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	if svgOut == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}

	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	x, err := traj.Column(svgX)
	if err != nil {
		return err
	}
	y, err := traj.Column(field)
	if err != nil {
		return err
	}
	svg, err := export.ProfileSVG(x, y, 800, 400, "#00ff00")
	if err != nil {
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}
