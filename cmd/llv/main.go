package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/longlist/internal/datasource"
	"github.com/vanderheijden86/longlist/pkg/config"
	"github.com/vanderheijden86/longlist/pkg/engine"
	"github.com/vanderheijden86/longlist/pkg/metrics"
	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/paginate"
	"github.com/vanderheijden86/longlist/pkg/transport"
	"github.com/vanderheijden86/longlist/pkg/ui"
	"github.com/vanderheijden86/longlist/pkg/version"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file path (default: XDG config dir)")
	dataDir := flag.String("data", "", "Directory holding records.db or a records JSONL file")
	strategyFlag := flag.String("strategy", "", "Pagination strategy: page, offset, or cursor")
	demoSize := flag.Int("demo", 0, "Serve N generated records from memory instead of a file")
	showMetrics := flag.Bool("metrics", false, "Print timing metrics on exit")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: llv [options]")
		fmt.Println("\nA windowed viewer for large record datasets.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("llv %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if *strategyFlag != "" {
		cfg.Engine.Strategy = *strategyFlag
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	// Terminal rows are the item extent in TUI mode.
	cfg.Engine.ItemExtent = 1
	if err := cfg.Engine.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	tr, sourceName, err := openTransport(cfg, *demoSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening data source: %v\n", err)
		os.Exit(1)
	}
	defer tr.Close()

	rows := initialRows()
	strat, err := buildStrategy(cfg.Engine, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := ui.New(sourceName)
	eng := engine.New(cfg.Engine, strat, tr, engine.WithRender(m.RenderFunc()))
	defer eng.Close()
	m.SetEngine(eng)
	eng.SetViewport(rows)

	// A JSONL source rewritten on disk invalidates the cached total.
	if jt, ok := tr.(*transport.JSONLTransport); ok {
		go func() {
			for range jt.Changed() {
				eng.MarkDataChanged()
			}
		}()
	}

	if err := eng.ScrollToIndex(0); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting initial load: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	if *showMetrics && metrics.Enabled() {
		printMetrics()
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// openTransport selects the record source: generated demo data, or the
// freshest valid source discovered in the data directory.
func openTransport(cfg config.Config, demoSize int) (transport.Transport, string, error) {
	if demoSize > 0 {
		return transport.NewMemoryTransport(demoRecords(demoSize)),
			fmt.Sprintf("demo (%d records)", demoSize), nil
	}
	tr, src, err := datasource.OpenBest(cfg.DataDir)
	if err != nil {
		return nil, "", err
	}
	return tr, src.Path, nil
}

func buildStrategy(opts config.Options, rows int64) (paginate.Strategy, error) {
	kind, err := paginate.ParseKind(opts.Strategy)
	if err != nil {
		return nil, err
	}
	switch kind {
	case paginate.KindPage:
		return paginate.NewPageStrategy(opts.PageSize)
	case paginate.KindCursor:
		return paginate.NewCursorStrategy(opts.PageSize)
	default:
		return paginate.NewOffsetStrategy(opts.ItemExtent, rows*opts.ItemExtent, opts.ViewportMultiplier, -1)
	}
}

// initialRows returns the terminal height before the program starts, so the
// first fetch can be sized correctly even when stdout is not yet in raw mode.
func initialRows() int64 {
	if _, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && h > 2 {
		return int64(h - 2)
	}
	return 24
}

var demoWords = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
	"golf", "hotel", "india", "juliet", "kilo", "lima",
}

func demoRecords(n int) []model.RawItem {
	rng := rand.New(rand.NewSource(42))
	records := make([]model.RawItem, n)
	for i := range records {
		words := make([]string, 2+rng.Intn(3))
		for w := range words {
			words[w] = demoWords[rng.Intn(len(demoWords))]
		}
		records[i] = model.RawItem{
			ID:       fmt.Sprintf("%d", i+1),
			Title:    strings.Join(words, " "),
			Subtitle: fmt.Sprintf("entry %d", i+1),
			Ref:      fmt.Sprintf("user%d@example.com", i+1),
		}
	}
	return records
}

func printMetrics() {
	fmt.Fprintln(os.Stderr, "timing metrics:")
	for _, s := range metrics.AllTimingStats() {
		fmt.Fprintf(os.Stderr, "  %-18s count=%-6d avg=%.2fms max=%.2fms\n",
			s.Name, s.Count, s.AvgMs, s.MaxMs)
	}
	sum := metrics.FetchLatency.Summary()
	if sum.Count > 0 {
		fmt.Fprintf(os.Stderr, "  fetch latency      p50=%.2fms p90=%.2fms p99=%.2fms\n",
			sum.P50Ms, sum.P90Ms, sum.P99Ms)
	}
}
