// render-lens — replay harness for the render-profiling engine.
// Feeds a YAML commit scenario through the profiler and prints emitted
// snapshot batches as JSON lines on stdout, or forwards them to a
// collector over a websocket. Stdout carries data only; all logging
// goes to stderr.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/render-lens/render-lens/internal/emit"
	"github.com/render-lens/render-lens/internal/host"
	"github.com/render-lens/render-lens/internal/profiler"
	"github.com/render-lens/render-lens/internal/transport"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	scenarioPath := flag.String("scenario", "", "Path to a YAML replay scenario (required)")
	collectorURL := flag.String("collector", "", "Collector websocket URL (default: print batches to stdout)")
	verbose := flag.Bool("verbose", false, "Enable internal logging to stderr")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("render-lens %s\n", version)
		return
	}
	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "render-lens: -scenario is required")
		flag.Usage()
		os.Exit(2)
	}

	log := zap.NewNop()
	if *verbose {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		built, err := cfg.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "render-lens: build logger: %v\n", err)
			os.Exit(1)
		}
		log = built
		defer func() { _ = log.Sync() }()
	}

	if err := run(*scenarioPath, *collectorURL, log); err != nil {
		fmt.Fprintf(os.Stderr, "render-lens: %v\n", err)
		os.Exit(1)
	}
}

// run replays one scenario end to end.
func run(scenarioPath, collectorURL string, log *zap.Logger) error {
	sc, err := loadScenario(scenarioPath)
	if err != nil {
		return err
	}

	sink, closeSink := buildSink(collectorURL, log)
	defer closeSink()

	prof := profiler.New(sink.Dispatch, scenarioProfilerOptions(sc.Options), log)
	hook := host.NewHook()
	if err := prof.Setup(hook); err != nil {
		return fmt.Errorf("profiler setup: %w", err)
	}
	rendererID := hook.Inject("render-lens-replay")

	builder := newTreeBuilder()
	for i, commit := range sc.Commits {
		if commit.Root != nil {
			hook.Commit(rendererID, builder.buildCommit(commit.Root))
		}
		for _, name := range commit.Unmount {
			node := builder.unmountNode(name)
			if node == nil {
				log.Warn("scenario unmounts unknown unit",
					zap.Int("commit", i), zap.String("name", name))
				continue
			}
			hook.Unmount(rendererID, node)
		}
		if commit.WaitMs > 0 {
			time.Sleep(time.Duration(commit.WaitMs) * time.Millisecond)
		}
	}

	// Final flush happens inside Teardown.
	prof.Teardown()
	return nil
}

// scenarioProfilerOptions converts scenario millisecond options.
func scenarioProfilerOptions(o scenarioOptions) profiler.Options {
	return profiler.Options{
		SnapshotInterval: time.Duration(o.SnapshotIntervalMs) * time.Millisecond,
		VelocityWindow:   time.Duration(o.VelocityWindowMs) * time.Millisecond,
		HotVelocity:      o.HotVelocity,
		HighRenderCount:  o.HighRenderCount,
		MinDeltaToEmit:   o.MinDeltaToEmit,
	}
}

// buildSink picks the batch destination: stdout JSON lines by default, a
// buffered collector connection when a URL is given.
func buildSink(collectorURL string, log *zap.Logger) (transport.Sink, func()) {
	if collectorURL == "" {
		enc := json.NewEncoder(os.Stdout)
		return transport.SinkFunc(func(msg *emit.SnapshotMessage) {
			if err := enc.Encode(msg); err != nil {
				log.Warn("encode snapshot batch", zap.Error(err))
			}
		}), func() {}
	}

	client := transport.NewCollectorClient(collectorURL, log)
	buffered := transport.NewBufferedSink(client, 0, log)
	return buffered, func() {
		buffered.Close()
		client.Close()
	}
}
