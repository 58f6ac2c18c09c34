package app

import (
	"flag"
	"strconv"

	"github.com/juju/loggo"
	errgo "gopkg.in/errgo.v1"
)

// Config represents the command-line parameters shared by the front-ends.
type Config struct {
	Sim    string
	Scale  int
	TPS    int
	Seed   int64
	Width  int
	Height int

	// ParamsFile names an optional TOML file of simulation tunables.
	ParamsFile string
	// LogConfig is a loggo specification such as "<root>=INFO;dune=DEBUG".
	LogConfig string
	// HUDWidth is the width of the parameter panel; zero hides it.
	HUDWidth int
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: "dune", Scale: 1, TPS: 60, LogConfig: "<root>=INFO", HUDWidth: 240}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset (0 uses the preset's seed)")
	fs.IntVar(&c.Width, "width", c.Width, "viewport width in simulation pixels (0 uses the preset)")
	fs.IntVar(&c.Height, "height", c.Height, "viewport height in simulation pixels (0 uses the preset)")
	fs.StringVar(&c.ParamsFile, "params", c.ParamsFile, "TOML file of simulation parameters")
	fs.StringVar(&c.LogConfig, "log", c.LogConfig, "logging configuration")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "HUD panel width in screen pixels (0 hides it)")
}

// ConfigureLogging applies LogConfig to the loggo registry.
func (c *Config) ConfigureLogging() error {
	if c.LogConfig == "" {
		return nil
	}
	if err := loggo.ConfigureLoggers(c.LogConfig); err != nil {
		return errgo.Notef(err, "bad log configuration %q", c.LogConfig)
	}
	return nil
}

// SimOptions builds the key/value map handed to the simulation factory: the
// parameter file first, then the explicit size and seed flags.
func (c *Config) SimOptions() (map[string]string, error) {
	opts := map[string]string{}
	if c.ParamsFile != "" {
		params, err := LoadParamFile(c.ParamsFile)
		if err != nil {
			return nil, errgo.Mask(err)
		}
		for k, v := range params {
			opts[k] = v
		}
	}
	if c.Width > 0 {
		opts["w"] = strconv.Itoa(c.Width)
	}
	if c.Height > 0 {
		opts["h"] = strconv.Itoa(c.Height)
	}
	if c.Seed != 0 {
		opts["seed"] = strconv.FormatInt(c.Seed, 10)
	}
	return opts, nil
}
