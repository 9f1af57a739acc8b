// Command ls-celestial shows the Sun, the Moon and the Earth for an instant
// and an optional observer, as a terminal UI or as headless text/JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-co-op/gocron"
	"golang.org/x/term"

	"github.com/litescript/ls-celestial/internal/astro"
	"github.com/litescript/ls-celestial/internal/bodies"
	"github.com/litescript/ls-celestial/internal/config"
	"github.com/litescript/ls-celestial/internal/ephem"
	"github.com/litescript/ls-celestial/internal/logging"
	"github.com/litescript/ls-celestial/internal/metrics"
	"github.com/litescript/ls-celestial/internal/state"
	"github.com/litescript/ls-celestial/internal/ui"
)

// CLI flags for headless mode
var (
	summaryMode   bool
	watchInterval time.Duration
	snapshotPath  string
	eventsMode    bool
)

func main() {
	configPath := flag.String("config", "", "Config file (TOML, YAML or JSON)")
	envPath := flag.String("env", "", "Dotenv file (default .env if present)")
	at := flag.String("time", "", "Query instant, RFC 3339 (default now)")
	lat := flag.Float64("lat", 0, "Observer latitude in degrees, north positive")
	lon := flag.Float64("lon", 0, "Observer longitude in degrees, east positive")
	alt := flag.Float64("alt", 0, "Observer height in meters")
	tz := flag.String("tz", "", "Display time zone (IANA name, UTC or Local)")
	refresh := flag.Duration("refresh", 0, "Recompute interval for the TUI (e.g., 30s, 1m)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	flag.BoolVar(&summaryMode, "summary", false, "Print text summary instead of TUI")
	flag.DurationVar(&watchInterval, "watch", 0, "Repeat headless output at interval (e.g., 1m)")
	flag.StringVar(&snapshotPath, "json", "", "Export JSON report to file (use - for stdout)")
	flag.BoolVar(&eventsMode, "events", false, "Print rise/set and phase events seen while watching")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fatal(err)
	}

	// Flags override the config file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			applyObserverFlag(&cfg, f.Name, *lat)
		case "lon":
			applyObserverFlag(&cfg, f.Name, *lon)
		case "alt":
			applyObserverFlag(&cfg, f.Name, *alt)
		case "tz":
			cfg.Timezone = *tz
		case "refresh":
			cfg.RefreshInterval = *refresh
		case "log-level":
			cfg.LogLevel = *logLevel
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	cfg.ClampRefresh()
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	logger := logging.New(cfg.Level())

	loc, err := cfg.Location()
	if err != nil {
		fatal(err)
	}

	clock, err := parseClock(*at)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	asmCfg := bodies.DefaultConfig()
	asmCfg.Location = loc
	asmCfg.Solver = astro.Solver{Tolerance: cfg.SolverTolerance}

	eng := &engine{
		asm:    bodies.NewAssembler(ephem.NewMeeusProvider(), asmCfg, logger),
		geo:    cfg.Geo(),
		clock:  clock,
		logger: logger,
	}

	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = cfg.RefreshInterval
	stateMgr := state.NewManager(stateCfg)

	// Headless mode: no TUI
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if summaryMode || snapshotPath != "" || eventsMode || watchInterval > 0 || !isTTY {
		if err := runHeadless(ctx, eng, stateMgr, loc, logger); err != nil {
			fatal(err)
		}
		return
	}

	model := ui.New(stateMgr, loc)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go runComputeLoop(ctx, eng, stateMgr, p, logger)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// parseClock returns the query instant source: a fixed time when -time is
// given, the wall clock otherwise.
func parseClock(s string) (func() time.Time, error) {
	if s == "" {
		return time.Now, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("-time: %w", err)
	}
	return func() time.Time { return t }, nil
}

func serveMetrics(addr string, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "err", err)
	}
}

// engine runs one full computation and stores it.
type engine struct {
	asm    *bodies.Assembler
	geo    *astro.Geo
	clock  func() time.Time
	logger *logging.Logger
}

// refresh computes a report for the current instant, plus altitude traces
// when an observer is set, and records everything in stateMgr. The returned
// error is nil for a complete report.
func (e *engine) refresh(stateMgr *state.Manager) error {
	t := e.clock()
	start := time.Now()

	report, err := e.asm.ComputeAll(t, e.geo)
	stateMgr.Update(report, time.Since(start), err)
	if err != nil {
		e.logger.Warn("report incomplete", "err", err)
	}

	if report != nil && e.geo != nil {
		for _, kind := range []bodies.Kind{bodies.KindSun, bodies.KindMoon} {
			tr, terr := e.asm.ComputeTrace(kind, t, *e.geo)
			if terr != nil {
				e.logger.Warn("altitude trace failed", "body", kind, "err", terr)
				continue
			}
			stateMgr.UpdateTrace(tr)
		}
	}

	e.logger.Debug("report computed", "at", t.Format(time.RFC3339), "took", time.Since(start))
	return err
}

func runComputeLoop(ctx context.Context, eng *engine, stateMgr *state.Manager, p *tea.Program, logger *logging.Logger) {
	doCompute(eng, stateMgr, p)

	ticker := time.NewTicker(stateMgr.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("compute loop shutting down")
			return
		case <-ticker.C:
			doCompute(eng, stateMgr, p)
		}
	}
}

func doCompute(eng *engine, stateMgr *state.Manager, p *tea.Program) {
	err := eng.refresh(stateMgr)
	if err != nil && !stateMgr.HasData() {
		p.Send(ui.ErrorMsg{Error: err})
		return
	}
	p.Send(ui.DataUpdateMsg{Snapshot: stateMgr.Snapshot()})
}

// applyObserverFlag overrides one observer coordinate from the command
// line and enables the observer. The other coordinates keep their
// configured values.
func applyObserverFlag(cfg *config.Config, name string, v float64) {
	cfg.Observer.Enabled = true
	switch name {
	case "lat":
		cfg.Observer.Latitude = v
	case "lon":
		cfg.Observer.Longitude = v
	case "alt":
		cfg.Observer.Altitude = v
	}
}

// runHeadless prints the report once, or on every -watch tick until ctx is
// cancelled.
func runHeadless(ctx context.Context, eng *engine, stateMgr *state.Manager, loc *time.Location, logger *logging.Logger) error {
	var lastEvent uint64

	outputOnce := func() error {
		computeErr := eng.refresh(stateMgr)
		snap := stateMgr.Snapshot()
		if snap.Report == nil {
			return computeErr
		}

		if snapshotPath != "" {
			if err := writeJSON(snap.Report, loc); err != nil {
				return err
			}
		}

		if summaryMode || snapshotPath == "" {
			bodies.WriteSummary(os.Stdout, snap.Report, loc)
		}

		if eventsMode {
			events := stateMgr.EventsSince(lastEvent)
			if n := len(events); n > 0 {
				lastEvent = events[n-1].Seq
			}
			writeEvents(events, loc)
		}

		if computeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", computeErr)
		}
		return nil
	}

	if watchInterval == 0 {
		return outputOnce()
	}

	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	runs := 0
	_, err := s.Every(watchInterval).Do(func() {
		// Blank line between outputs, except for streamed JSON.
		if runs > 0 && snapshotPath != "-" {
			fmt.Println()
		}
		runs++
		if err := outputOnce(); err != nil {
			logger.Error("watch run failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule watch: %w", err)
	}

	s.StartAsync()
	<-ctx.Done()
	s.Stop()
	return nil
}

func writeJSON(r *bodies.Report, loc *time.Location) error {
	export := bodies.ExportReport(r, loc)
	if snapshotPath == "-" {
		if err := export.WriteJSON(os.Stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
		return nil
	}

	f, err := os.Create(snapshotPath)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()
	if err := export.WriteJSON(f); err != nil {
		return fmt.Errorf("write JSON to file: %w", err)
	}
	return nil
}

func writeEvents(events []state.Event, loc *time.Location) {
	for _, e := range events {
		line := fmt.Sprintf("%s  %-5s %s", e.Timestamp.In(loc).Format("2006-01-02 15:04"), e.Body, e.Type)
		if e.Type == state.EventPhaseChange {
			line += fmt.Sprintf(" %s -> %s", e.OldPhase, e.NewPhase)
		}
		fmt.Println(line)
	}
}
