// Command dune-term runs the dune simulation inside a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/juju/loggo"
	errgo "gopkg.in/errgo.v1"

	"sand-dune/internal/app"
	_ "sand-dune/internal/sims/dune"
	"sand-dune/internal/term"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	density := flag.Int("density", 2, "simulation pixels per half block")
	logFile := flag.String("logfile", "", "append log output to this file; logs are discarded when empty")
	flag.Parse()

	if err := run(cfg, *density, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "dune-term: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *app.Config, density int, logFile string) error {
	if err := cfg.ConfigureLogging(); err != nil {
		return errgo.Mask(err)
	}
	closeLog, err := redirectLogs(logFile)
	if err != nil {
		return errgo.Mask(err)
	}
	defer closeLog()

	sim, err := cfg.NewSim()
	if err != nil {
		return errgo.Mask(err)
	}
	tsim, ok := sim.(term.Sim)
	if !ok {
		return errgo.Newf("sim %q cannot be shown in a terminal", cfg.Sim)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return errgo.Notef(err, "cannot open terminal")
	}
	if err := screen.Init(); err != nil {
		return errgo.Notef(err, "cannot initialise terminal")
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := term.NewViewer(screen, tsim, density, cfg.TPS, cfg.Seed)
	if err := v.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errgo.Mask(err)
	}
	return nil
}

// redirectLogs keeps log output off the terminal while tcell owns it.
func redirectLogs(path string) (func(), error) {
	var w io.Writer = io.Discard
	closer := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errgo.Notef(err, "cannot open log file")
		}
		w = f
		closer = func() { f.Close() }
	}
	if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(w, loggo.DefaultFormatter)); err != nil {
		closer()
		return nil, errgo.Notef(err, "cannot redirect logging")
	}
	return closer, nil
}
