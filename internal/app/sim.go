package app

import (
	"strings"

	errgo "gopkg.in/errgo.v1"

	"sand-dune/internal/core"
)

// NewSim builds the configured simulation from the registry and resets it
// with the configured seed.
func (c *Config) NewSim() (core.Sim, error) {
	factory, ok := core.Sims()[c.Sim]
	if !ok {
		return nil, errgo.Newf("unknown sim %q (available: %s)", c.Sim, strings.Join(core.SimNames(), ", "))
	}
	opts, err := c.SimOptions()
	if err != nil {
		return nil, errgo.Mask(err)
	}
	sim := factory(opts)
	sim.Reset(c.Seed)
	return sim, nil
}
