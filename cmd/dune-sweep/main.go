// Command dune-sweep pours sand into a headless dune world and searches the
// settling and relaxation tunables for the smoothest pile.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/juju/loggo"
	"github.com/kr/pretty"
	errgo "gopkg.in/errgo.v1"

	"sand-dune/internal/app"
	"sand-dune/internal/sims/dune"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return errgo.Newf("override %q is not in key=value form", value)
	}
	*l = append(*l, value)
	return nil
}

func main() {
	steps := flag.Int("steps", 600, "number of ticks to simulate per candidate")
	passes := flag.Int("passes", 3, "coordinate-descent passes to execute")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel candidate evaluations")
	width := flag.Int("width", 240, "viewport width for tuning runs")
	height := flag.Int("height", 180, "viewport height for tuning runs")
	seed := flag.Int64("seed", 1337, "seed used for deterministic simulations")
	manualOnly := flag.Bool("manual", false, "skip sweeping and only evaluate the provided overrides")
	paramsFile := flag.String("params", "", "TOML file of starting parameters")
	logConfig := flag.String("log", "<root>=WARNING;dune=INFO", "logging configuration")
	var overrides kvList
	flag.Var(&overrides, "set", "parameter override in key=value form (repeatable)")
	flag.Parse()

	if err := loggo.ConfigureLoggers(*logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "dune-sweep: bad log configuration: %v\n", err)
		os.Exit(2)
	}

	opts := map[string]string{}
	if *paramsFile != "" {
		params, err := app.LoadParamFile(*paramsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dune-sweep: %v\n", err)
			os.Exit(1)
		}
		opts = params
	}
	for _, kv := range overrides {
		key, value, _ := strings.Cut(kv, "=")
		opts[key] = value
	}

	cfg := dune.ApplyMap(dune.DefaultConfig(), opts)
	cfg.Width = *width
	cfg.Height = *height
	cfg.Seed = *seed

	baseline := dune.PourProfile(cfg, *steps)
	fmt.Printf("Baseline: %s (score %.3f)\n", baseline, baseline.Score())

	if *manualOnly {
		fmt.Println("Manual evaluation requested; skipping sweep.")
		pretty.Println(cfg.Params)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params, result, trace, err := dune.ParameterSweep(ctx, cfg, *steps, *passes, *workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dune-sweep: sweep interrupted: %v\n", err)
	}

	fmt.Printf("\nBest found: %s (score %.3f)\n", result, result.Score())
	pretty.Println(params)

	if len(trace) > 1 {
		fmt.Println("\nImprovements:")
		for _, rec := range trace[1:] {
			fmt.Printf("  pass %d: %s=%s -> %s (score %.3f)\n",
				rec.Pass, rec.Parameter, rec.Value, rec.Result, rec.Result.Score())
		}
	}
	if err != nil {
		os.Exit(1)
	}
}
