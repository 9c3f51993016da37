// Command bench replays a recorded or synthetic Hyprland event stream through
// the engine and reports per-event pass latency, renames and allocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/engine"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

type benchOptions struct {
	iterations    int
	warmup        int
	respectDelays bool
	trace         bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			err = pathErr
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	defaultFixturePath := filepath.Join("fixtures", "coding.json")

	flags := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	cfgPath := flags.StringP("config", "c", "", "path to config file (default: built-in config)")
	fixturePath := flags.String("fixture", defaultFixturePath, "path to replay fixture (JSON world or event log)")
	iterations := flags.Int("iterations", 10, "number of times to replay the fixture")
	warmup := flags.Int("warmup", 0, "number of warm-up iterations to run before timing")
	cpuProfile := flags.String("cpu-profile", "", "write CPU profile to file")
	memProfile := flags.String("mem-profile", "", "write heap profile to file")
	logLevel := flags.String("log-level", "warn", "log level (trace|debug|info|warn|error)")
	respectDelays := flags.Bool("respect-delays", false, "sleep for event delays declared in the fixture")
	outputPath := flags.String("output", "-", "write JSON report to file ('-' for stdout)")
	humanSummary := flags.Bool("human", false, "print a tabular summary alongside the JSON output")
	eventTracePath := flags.String("event-trace", "", "write per-event timings to file (JSON array, '-' for stdout)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *iterations <= 0 {
		return errors.New("iterations must be positive")
	}
	if *warmup < 0 {
		return errors.New("warmup must be zero or positive")
	}

	logger := util.NewLogger(util.ParseLogLevel(*logLevel))

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	fixture := defaultFixture()
	if *fixturePath != "" {
		loaded, err := loadFixture(*fixturePath, fixture)
		switch {
		case err == nil:
			fixture = loaded
		case errors.Is(err, fs.ErrNotExist) && *fixturePath == defaultFixturePath:
			logger.Warnf("fixture %s not found, using built-in synthetic stream", *fixturePath)
		default:
			return fmt.Errorf("load fixture: %w", err)
		}
	}
	if len(fixture.Events) == 0 {
		return errors.New("fixture contains no events")
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	ctx := context.Background()
	opts := benchOptions{
		iterations:    *iterations,
		warmup:        *warmup,
		respectDelays: *respectDelays,
		trace:         strings.TrimSpace(*eventTracePath) != "",
	}
	report, traces, err := runBench(ctx, fixture, cfg, logger, opts)
	if err != nil {
		return err
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			return fmt.Errorf("create mem profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("write heap profile: %w", err)
		}
	}

	if err := writeJSON(*outputPath, report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if opts.trace {
		if err := writeJSON(*eventTracePath, traces); err != nil {
			return fmt.Errorf("write event trace: %w", err)
		}
	}
	if *humanSummary {
		if err := printHumanSummary(report.Summary, os.Stdout); err != nil {
			return fmt.Errorf("print human summary: %w", err)
		}
	}
	return nil
}

func runBench(ctx context.Context, fixture benchFixture, cfg *config.Config, logger *util.Logger, opts benchOptions) (benchReport, []benchEventTrace, error) {
	for i := 0; i < opts.warmup; i++ {
		if _, _, _, _, err := replayIteration(ctx, fixture, cfg, logger, opts.respectDelays, i+1, false, false); err != nil {
			return benchReport{}, nil, fmt.Errorf("warmup iteration %d: %w", i+1, err)
		}
	}

	runtime.GC()
	var startMem runtime.MemStats
	runtime.ReadMemStats(&startMem)

	eventsPerIteration := len(fixture.Events)
	durations := make([]time.Duration, 0, eventsPerIteration*opts.iterations)
	iterationDurations := make([]time.Duration, 0, opts.iterations)
	iterationDispatches := make([]int, 0, opts.iterations)
	totalDispatches := 0
	var traces []benchEventTrace

	for i := 0; i < opts.iterations; i++ {
		iterationDuration, dispatchCount, eventDurations, iterTraces, err := replayIteration(ctx, fixture, cfg, logger, opts.respectDelays, i+1, true, opts.trace)
		if err != nil {
			return benchReport{}, nil, fmt.Errorf("iteration %d: %w", i+1, err)
		}
		iterationDurations = append(iterationDurations, iterationDuration)
		iterationDispatches = append(iterationDispatches, dispatchCount)
		totalDispatches += dispatchCount
		durations = append(durations, eventDurations...)
		traces = append(traces, iterTraces...)
	}

	runtime.GC()
	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)

	report := buildReport(fixture, opts.iterations, opts.warmup, durations, iterationDurations, iterationDispatches, totalDispatches, startMem, endMem)
	return report, traces, nil
}

// replayIteration runs the fixture once against a fresh engine. The initial
// pass is not timed.
func replayIteration(ctx context.Context, fixture benchFixture, cfg *config.Config, logger *util.Logger, respectDelays bool, iteration int, capture, trace bool) (time.Duration, int, []time.Duration, []benchEventTrace, error) {
	iterationStart := time.Now()
	hypr := fixture.newHyprctl()
	eng := engine.New(hypr, logger, cfg, false, nil)
	if _, err := eng.Pass(ctx); err != nil {
		return 0, 0, nil, nil, fmt.Errorf("initial pass: %w", err)
	}

	var eventDurations []time.Duration
	if capture {
		eventDurations = make([]time.Duration, 0, len(fixture.Events))
	}
	var traces []benchEventTrace

	for idx, ev := range fixture.Events {
		if respectDelays && ev.Delay > 0 {
			time.Sleep(ev.Delay)
		}
		hypr.apply(ev.Event)
		before := hypr.Dispatches()
		start := time.Now()
		if err := eng.ApplyEvent(ctx, ev.Event); err != nil {
			return 0, 0, nil, nil, fmt.Errorf("apply %s: %w", ev.Event.Kind, err)
		}
		elapsed := time.Since(start)
		if !capture {
			continue
		}
		eventDurations = append(eventDurations, elapsed)
		if trace {
			traces = append(traces, benchEventTrace{
				Iteration:  iteration,
				EventIndex: idx + 1,
				Kind:       ev.Event.Kind,
				Payload:    ev.Event.Payload,
				DurationMs: toMillis(elapsed),
				Dispatches: hypr.Dispatches() - before,
			})
		}
	}
	return time.Since(iterationStart), hypr.Dispatches(), eventDurations, traces, nil
}
