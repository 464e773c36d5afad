package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/satwerk/gravsim/internal/analysis"
	"github.com/satwerk/gravsim/internal/config"
	"github.com/satwerk/gravsim/internal/export"
	"github.com/satwerk/gravsim/internal/httpapi"
	"github.com/satwerk/gravsim/internal/metrics"
	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/rangestore"
	"github.com/satwerk/gravsim/internal/runlog"
	"github.com/satwerk/gravsim/internal/runstore"
	"github.com/satwerk/gravsim/internal/sim"
	"github.com/satwerk/gravsim/internal/tui"
)

var (
	configFile string
	dbPath     string
	preset     string
	iterations int
	maxTime    float64
	gConst     float64
	softening  float64
	workers    int
	outPath    string
	addr       string
	runID      int64
	docFile    string
	agentName  string
	field      string
	fromTime   float64
	toTime     float64
	csvPath    string
	svgPath    string
)

// main wires up the gravsim command tree and executes it; it exits the
// process with status 1 when a command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "gravsim",
		Short: "n-body gravity simulation service",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath, "run database path")

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "run a simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "use a named scenario")
	runCmd.Flags().IntVar(&iterations, "iterations", sim.DefaultIterations, "iteration count")
	runCmd.Flags().Float64Var(&maxTime, "max-time", 0, "simulated time bound (0 = none)")
	runCmd.Flags().Float64Var(&gConst, "g", 1.0, "gravitational constant")
	runCmd.Flags().Float64Var(&softening, "softening", 0, "force softening length")
	runCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "also write the output document to a file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the simulation HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "http listen address")

	queryCmd := &cobra.Command{
		Use:   "query [agent] [time]",
		Short: "query a stored trajectory at a point or over a range",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  queryRun,
	}
	queryCmd.Flags().Int64Var(&runID, "run", 0, "run id (default latest)")
	queryCmd.Flags().StringVar(&docFile, "file", "", "query a document file instead of the run store")
	queryCmd.Flags().Float64Var(&fromTime, "from", 0, "range start")
	queryCmd.Flags().Float64Var(&toTime, "to", 0, "range end")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot a stored trajectory",
		Args:  cobra.NoArgs,
		RunE:  plotRun,
	}
	plotCmd.Flags().Int64Var(&runID, "run", 0, "run id (default latest)")
	plotCmd.Flags().StringVar(&docFile, "file", "", "plot a document file instead of the run store")
	plotCmd.Flags().StringVar(&agentName, "agent", "", "plot a single agent")
	plotCmd.Flags().StringVar(&field, "field", "x", "field to plot: x, y, vx, vy, r, speed")
	plotCmd.Flags().StringVar(&csvPath, "csv", "", "also export the document as CSV")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also export the trajectories as SVG")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "frequency analysis of a stored trajectory",
		Args:  cobra.NoArgs,
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Int64Var(&runID, "run", 0, "run id (default latest)")
	analyzeCmd.Flags().StringVar(&docFile, "file", "", "analyze a document file instead of the run store")
	analyzeCmd.Flags().StringVar(&agentName, "agent", "", "agent to analyze (default first)")
	analyzeCmd.Flags().StringVar(&field, "field", "x", "field to analyze: x, y, vx, vy, r, speed")

	liveCmd := &cobra.Command{
		Use:   "live [file]",
		Short: "watch a simulation evolve in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&preset, "preset", "", "use a named scenario")
	liveCmd.Flags().Float64Var(&gConst, "g", 1.0, "gravitational constant")
	liveCmd.Flags().Float64Var(&softening, "softening", 0, "force softening length")
	liveCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print a stored run's output document",
		Args:  cobra.NoArgs,
		RunE:  showRun,
	}
	showCmd.Flags().Int64Var(&runID, "run", 0, "run id (default latest)")
	showCmd.Flags().StringVar(&docFile, "file", "", "show a document file instead of the run store")
	showCmd.Flags().StringVar(&csvPath, "csv", "", "write CSV instead of JSON")
	showCmd.Flags().StringVar(&svgPath, "svg", "", "write SVG instead of JSON")

	rootCmd.AddCommand(runCmd, serveCmd, queryCmd, plotCmd, analyzeCmd, liveCmd, presetsCmd, listCmd, showCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runConfig layers the configuration sources for a command: defaults,
// then the --config file, then GRAVSIM_* environment variables, then the
// chosen preset's run parameters, then whichever flags were set
// explicitly.
func runConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	if err := config.FromEnv(cfg); err != nil {
		return nil, err
	}
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		cfg.Run = p.Run
	}

	f := cmd.Flags()
	if f.Changed("iterations") {
		cfg.Run.Iterations = iterations
	}
	if f.Changed("max-time") {
		cfg.Run.MaxTime = maxTime
	}
	if f.Changed("g") {
		cfg.Run.G = gConst
	}
	if f.Changed("softening") {
		cfg.Run.Softening = softening
	}
	if f.Changed("workers") {
		cfg.Run.Workers = workers
	}
	if f.Changed("db") {
		cfg.Server.DBPath = dbPath
	}
	return cfg, nil
}

// initialConditions resolves the starting bodies for run and live: an
// explicit file argument wins over --preset, and with neither the nano
// scenario is used.
func initialConditions(args []string) (string, orbit.InitialConditions, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", nil, err
		}
		ic, err := orbit.DecodeInitialConditions(data)
		if err != nil {
			return "", nil, fmt.Errorf("parse %s: %w", args[0], err)
		}
		name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		return name, ic, nil
	}

	name := preset
	if name == "" {
		name = "nano"
	}
	p := config.GetPreset(name)
	if p == nil {
		return "", nil, fmt.Errorf("unknown preset: %s (available: %s)", name, strings.Join(config.ListPresets(), ", "))
	}
	return name, p.Initial, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	name, ic, err := initialConditions(args)
	if err != nil {
		return err
	}

	s, err := sim.New(ic, cfg.Run.SimConfig())
	if err != nil {
		return err
	}
	grav := orbit.Gravity{G: cfg.Run.G, Softening: cfg.Run.Softening}
	s.AddMetric(metrics.NewEnergyDrift(grav))
	s.AddMetric(metrics.NewMomentumDrift())
	s.AddMetric(metrics.NewMinSeparation())

	fmt.Printf("running %s: %d agents, %d iterations...\n", name, len(ic), cfg.Run.Iterations)

	ctx, cancel := signalContext()
	defer cancel()

	res, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed after %d iterations: %w", res.Iterations, err)
	}

	data, err := json.Marshal(s.Export())
	if err != nil {
		return err
	}
	st, err := runstore.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer st.Close()
	id, err := st.Save(context.Background(), res.Status.String(), res.Iterations, res.Agents, data)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", res.Elapsed)
	fmt.Printf("run id: %d\n", id)
	fmt.Printf("iterations: %d\n", res.Iterations)
	fmt.Printf("energy drift: %.3g\n", res.EnergyDrift)
	fmt.Println("\nmetrics:")
	for _, mname := range slices.Sorted(maps.Keys(res.Metrics)) {
		fmt.Printf("  %s: %.6g\n", mname, res.Metrics[mname])
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	runs, err := runstore.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer runs.Close()

	var rl *runlog.Logger
	if cfg.Server.LogDir != "" {
		rl = runlog.New(cfg.Server.LogDir)
		defer rl.Close()
	}

	srv, err := httpapi.NewServer(cfg.Server, cfg.Run, runs, rl, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	hs := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = hs.Shutdown(sctx)
	}()

	logger.Printf("listening on %s", cfg.Server.Addr)
	if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	logger.Printf("shutdown complete")
	return nil
}

func queryRun(cmd *cobra.Command, args []string) error {
	doc, _, err := loadDocument(cmd)
	if err != nil {
		return err
	}
	st, err := rangestore.FromDocument(doc)
	if err != nil {
		return err
	}
	agent := args[0]

	if len(args) == 2 {
		t, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("parse time %q: %w", args[1], err)
		}
		rec, ok := st.Query(agent, t)
		if !ok {
			start, end, spanOK := st.Span(agent)
			if !spanOK {
				return fmt.Errorf("no records for agent %q", agent)
			}
			return fmt.Errorf("t=%g outside [%g, %g) for agent %q", t, start, end, agent)
		}
		printRecord(rec)
		return nil
	}

	if !cmd.Flags().Changed("from") || !cmd.Flags().Changed("to") {
		return fmt.Errorf("range query needs --from and --to (or pass a single time)")
	}
	recs := st.QueryRange(agent, fromTime, toTime)
	if len(recs) == 0 {
		fmt.Println("no records in range")
		return nil
	}
	for _, rec := range recs {
		printRecord(rec)
	}
	return nil
}

func printRecord(rec rangestore.Record) {
	fmt.Printf("[%g, %g)  x=%g y=%g vx=%g vy=%g t=%g\n",
		rec.Start, rec.End, rec.State.X, rec.State.Y, rec.State.VX, rec.State.VY, rec.State.Time)
}

func plotRun(cmd *cobra.Command, args []string) error {
	doc, _, err := loadDocument(cmd)
	if err != nil {
		return err
	}

	names := slices.Sorted(maps.Keys(doc))
	if agentName != "" {
		if _, ok := doc[agentName]; !ok {
			return fmt.Errorf("unknown agent %q (have: %s)", agentName, strings.Join(names, ", "))
		}
		names = []string{agentName}
	}

	fmt.Printf("field: %s\n\n", field)
	for _, name := range names {
		series, err := analysis.Series(doc[name], field)
		if err != nil {
			return err
		}
		if len(series) < 2 {
			continue
		}
		graph := asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s: %s vs time (%d samples)", name, field, len(series))),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return writeExports(doc)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	doc, _, err := loadDocument(cmd)
	if err != nil {
		return err
	}

	name := agentName
	if name == "" {
		names := slices.Sorted(maps.Keys(doc))
		if len(names) == 0 {
			return fmt.Errorf("no data")
		}
		name = names[0]
	}
	recs, ok := doc[name]
	if !ok {
		return fmt.Errorf("unknown agent %q (have: %s)", name, strings.Join(slices.Sorted(maps.Keys(doc)), ", "))
	}

	series, err := analysis.Series(recs, field)
	if err != nil {
		return err
	}
	if len(series) < 4 {
		return fmt.Errorf("not enough samples to analyze: %d", len(series))
	}

	fmt.Printf("frequency analysis: %s (%s)\n", name, field)
	fmt.Printf("samples: %d\n\n", len(series))

	ps := analysis.PowerSpectrum(series)
	plotData := ps
	if len(plotData) > 8 {
		plotData = plotData[:len(plotData)/4]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", field)),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, _ := analysis.DominantFrequency(series, analysis.SampleStep(recs))
	if freq <= 0 {
		fmt.Println("no dominant frequency found")
		return nil
	}
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	fmt.Printf("period: %.3f s\n", 1.0/freq)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	name, ic, err := initialConditions(args)
	if err != nil {
		return err
	}

	m, err := tui.NewModel(name, ic, cfg.Run.SimConfig())
	if err != nil {
		return err
	}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAGENTS\tITERATIONS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, len(p.Initial), p.Run.Iterations, p.Description)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	st, err := runstore.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer st.Close()

	runs, err := st.List(context.Background(), 50)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tITERATIONS\tAGENTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Status,
			run.Iterations,
			run.Agents,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	doc, data, err := loadDocument(cmd)
	if err != nil {
		return err
	}
	if csvPath != "" || svgPath != "" {
		return writeExports(doc)
	}
	os.Stdout.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

// loadDocument resolves which trajectory document a command operates on:
// --file wins, otherwise --run (or the latest run) from the run store.
// The raw bytes come back alongside the decoded document so show can
// print exactly what was stored.
func loadDocument(cmd *cobra.Command) (rangestore.Document, []byte, error) {
	if docFile != "" {
		data, err := os.ReadFile(docFile)
		if err != nil {
			return nil, nil, err
		}
		var doc rangestore.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", docFile, err)
		}
		return doc, data, nil
	}

	cfg, err := runConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	st, err := runstore.Open(cfg.Server.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open run store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	var run *runstore.Run
	if runID > 0 {
		run, err = st.Get(ctx, runID)
	} else {
		run, err = st.Latest(ctx)
	}
	if err != nil {
		if errors.Is(err, runstore.ErrNotFound) {
			return nil, nil, fmt.Errorf("no stored runs; run a simulation first")
		}
		return nil, nil, err
	}
	doc, err := run.Document()
	if err != nil {
		return nil, nil, err
	}
	return doc, run.Data, nil
}

func writeExports(doc rangestore.Document) error {
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		if err := export.WriteCSV(f, doc); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvPath)
	}
	if svgPath != "" {
		svg := export.DocumentToSVG(doc, 800, 600)
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
