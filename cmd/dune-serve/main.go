// Command dune-serve runs the dune simulation headless and streams its render
// feed to websocket clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/loggo"
	errgo "gopkg.in/errgo.v1"

	"sand-dune/internal/app"
	"sand-dune/internal/feed"
	_ "sand-dune/internal/sims/dune"
)

var logger = loggo.GetLogger("dune.serve")

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	addr := flag.String("addr", "localhost:8080", "address to listen on")
	flag.Parse()

	if err := run(cfg, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "dune-serve: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *app.Config, addr string) error {
	if err := cfg.ConfigureLogging(); err != nil {
		return errgo.Mask(err)
	}
	sim, err := cfg.NewSim()
	if err != nil {
		return errgo.Mask(err)
	}
	fsim, ok := sim.(feed.Sim)
	if !ok {
		return errgo.Newf("sim %q has no render feed", cfg.Sim)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	size := sim.Size()
	logger.Infof("running %s at %dx%d, %d ticks per second", cfg.Sim, size.W, size.H, cfg.TPS)
	if err := feed.NewServer(fsim, cfg.TPS, cfg.Seed).ListenAndServe(ctx, addr); err != nil {
		return errgo.Mask(err)
	}
	logger.Infof("shut down")
	return nil
}
