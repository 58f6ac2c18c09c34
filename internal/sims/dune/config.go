package dune

import (
	"image/color"
	"strconv"
	"time"

	"sand-dune/internal/core"
)

// Params holds the tunable constants of the dune simulation. Lengths are in
// pixels, speeds in pixels per tick and timings in simulation time.
type Params struct {
	ColumnWidth float64

	SpawnRate    int
	MaxParticles int
	SpawnJitterX float64
	SpawnJitterY float64

	MinRadius      float64
	MaxRadius      float64
	LargeChance    float64
	LargeMinRadius float64
	LargeMaxRadius float64

	Gravity           float64
	Drag              float64
	CollideStrength   float64
	LateralBase       float64
	CollisionWindow   int
	CollisionReach    float64
	BounceSpeed       float64
	BounceRestitution float64

	TickDuration       time.Duration
	FreezeAfter        time.Duration
	GrainFreezeAfter   time.Duration
	GrainLock          time.Duration
	StabilityIncrement float64
	StabilityThreshold float64

	RelaxInterval    int
	RelaxPasses      int
	CriticalSlope    float64
	FallbackTransfer float64

	HeightBiasThreshold float64
	HeightRejectMaxProb float64
}

// Config controls the dune viewport, seed and tunables.
type Config struct {
	Width  int
	Height int

	Seed int64

	BaseColor color.RGBA

	Params Params
}

// DefaultBaseColor is the sand tint used until the base colour changes. It is
// also the fallback when a grain carries no usable colour.
var DefaultBaseColor = color.RGBA{R: 230, G: 190, B: 120, A: 255}

// DefaultParams returns the standard tunables.
func DefaultParams() Params {
	return Params{
		ColumnWidth: 3,

		SpawnRate:    4,
		MaxParticles: 1600,
		SpawnJitterX: 50,
		SpawnJitterY: 6,

		MinRadius:      0.5,
		MaxRadius:      1.2,
		LargeChance:    0.1,
		LargeMinRadius: 1.8,
		LargeMaxRadius: 3.0,

		Gravity:           0.34,
		Drag:              0.997,
		CollideStrength:   0.28,
		LateralBase:       0.55,
		CollisionWindow:   4,
		CollisionReach:    1.6,
		BounceSpeed:       1.0,
		BounceRestitution: 0.08,

		TickDuration:       time.Second / 60,
		FreezeAfter:        9000 * time.Millisecond,
		GrainFreezeAfter:   8000 * time.Millisecond,
		GrainLock:          600 * time.Millisecond,
		StabilityIncrement: 0.045,
		StabilityThreshold: 0.72,

		RelaxInterval:    1,
		RelaxPasses:      3,
		CriticalSlope:    1.0,
		FallbackTransfer: 0.6,

		HeightBiasThreshold: 6.0,
		HeightRejectMaxProb: 0.9,
	}
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:     960,
		Height:    540,
		Seed:      1337,
		BaseColor: DefaultBaseColor,
		Params:    DefaultParams(),
	}
}

// FineConfig is the "dune-fine" preset: uniform small grains and more
// relaxation per tick, which gives smoother, lower-angle slopes.
func FineConfig() Config {
	cfg := DefaultConfig()
	cfg.Params.LargeChance = 0
	cfg.Params.RelaxPasses = 6
	cfg.Params.HeightBiasThreshold = 4
	return cfg
}

// paramKind distinguishes how a tunable is stored and parsed.
type paramKind uint8

const (
	kindFloat paramKind = iota
	kindInt
	kindMillis
)

// paramSpec binds a string key to a field of Params. The same table drives
// FromMap, the parameter snapshot and the HUD setters.
type paramSpec struct {
	key   string
	label string
	group string
	kind  paramKind

	float func(p *Params) *float64
	int   func(p *Params) *int
	dur   func(p *Params) *time.Duration

	min, max       float64
	hasMin, hasMax bool
	step           float64
	hud            bool
}

func floatSpec(group, key, label string, f func(p *Params) *float64, min, max, step float64, hud bool) paramSpec {
	return paramSpec{key: key, label: label, group: group, kind: kindFloat, float: f, min: min, max: max, hasMin: true, hasMax: max > min, step: step, hud: hud}
}

func intSpec(group, key, label string, f func(p *Params) *int, min, max, step float64, hud bool) paramSpec {
	return paramSpec{key: key, label: label, group: group, kind: kindInt, int: f, min: min, max: max, hasMin: true, hasMax: max > min, step: step, hud: hud}
}

func millisSpec(group, key, label string, f func(p *Params) *time.Duration, min, max, step float64) paramSpec {
	return paramSpec{key: key, label: label, group: group, kind: kindMillis, dur: f, min: min, max: max, hasMin: true, hasMax: max > min, step: step}
}

var paramSpecs = []paramSpec{
	floatSpec("Columns", "column_width", "Column width", func(p *Params) *float64 { return &p.ColumnWidth }, 1, 32, 1, false),

	intSpec("Spawning", "spawn_rate", "Spawn rate", func(p *Params) *int { return &p.SpawnRate }, 0, 64, 1, true),
	intSpec("Spawning", "max_particles", "Max particles", func(p *Params) *int { return &p.MaxParticles }, 0, 100000, 100, true),
	floatSpec("Spawning", "spawn_jitter_x", "Spawn jitter X", func(p *Params) *float64 { return &p.SpawnJitterX }, 0, 500, 5, false),
	floatSpec("Spawning", "spawn_jitter_y", "Spawn jitter Y", func(p *Params) *float64 { return &p.SpawnJitterY }, 0, 100, 1, false),
	floatSpec("Spawning", "min_radius", "Min radius", func(p *Params) *float64 { return &p.MinRadius }, 0.1, 10, 0.1, false),
	floatSpec("Spawning", "max_radius", "Max radius", func(p *Params) *float64 { return &p.MaxRadius }, 0.1, 10, 0.1, false),
	floatSpec("Spawning", "large_chance", "Large grain chance", func(p *Params) *float64 { return &p.LargeChance }, 0, 1, 0.05, true),
	floatSpec("Spawning", "large_min_radius", "Large min radius", func(p *Params) *float64 { return &p.LargeMinRadius }, 0.1, 10, 0.1, false),
	floatSpec("Spawning", "large_max_radius", "Large max radius", func(p *Params) *float64 { return &p.LargeMaxRadius }, 0.1, 10, 0.1, false),

	floatSpec("Motion", "gravity", "Gravity", func(p *Params) *float64 { return &p.Gravity }, 0, 5, 0.02, true),
	floatSpec("Motion", "drag", "Velocity retention", func(p *Params) *float64 { return &p.Drag }, 0, 1, 0.001, false),
	floatSpec("Motion", "collide_strength", "Collide strength", func(p *Params) *float64 { return &p.CollideStrength }, 0, 5, 0.02, false),
	floatSpec("Motion", "lateral_base", "Lateral strength", func(p *Params) *float64 { return &p.LateralBase }, 0, 5, 0.05, true),
	intSpec("Motion", "collision_window", "Collision window", func(p *Params) *int { return &p.CollisionWindow }, 0, 64, 1, false),
	floatSpec("Motion", "collision_reach", "Collision reach", func(p *Params) *float64 { return &p.CollisionReach }, 0, 10, 0.1, false),
	floatSpec("Motion", "bounce_speed", "Bounce speed", func(p *Params) *float64 { return &p.BounceSpeed }, 0, 20, 0.1, false),
	floatSpec("Motion", "bounce_restitution", "Bounce restitution", func(p *Params) *float64 { return &p.BounceRestitution }, 0, 1, 0.01, false),

	millisSpec("Stability", "tick_ms", "Tick duration (ms)", func(p *Params) *time.Duration { return &p.TickDuration }, 1, 1000, 1),
	millisSpec("Stability", "freeze_after_ms", "Particle lifetime (ms)", func(p *Params) *time.Duration { return &p.FreezeAfter }, 0, 600000, 500),
	millisSpec("Stability", "grain_freeze_ms", "Grain freeze age (ms)", func(p *Params) *time.Duration { return &p.GrainFreezeAfter }, 0, 600000, 500),
	millisSpec("Stability", "grain_lock_ms", "Grain lock (ms)", func(p *Params) *time.Duration { return &p.GrainLock }, 0, 600000, 50),
	floatSpec("Stability", "stability_increment", "Stability increment", func(p *Params) *float64 { return &p.StabilityIncrement }, 0, 1, 0.005, true),
	floatSpec("Stability", "stability_threshold", "Stability threshold", func(p *Params) *float64 { return &p.StabilityThreshold }, 0, 1, 0.02, true),

	intSpec("Relaxation", "relax_interval", "Relax interval", func(p *Params) *int { return &p.RelaxInterval }, 1, 600, 1, false),
	intSpec("Relaxation", "relax_passes", "Relax passes", func(p *Params) *int { return &p.RelaxPasses }, 0, 64, 1, true),
	floatSpec("Relaxation", "critical_slope", "Critical slope", func(p *Params) *float64 { return &p.CriticalSlope }, 0, 50, 0.25, true),
	floatSpec("Relaxation", "fallback_transfer", "Fallback transfer", func(p *Params) *float64 { return &p.FallbackTransfer }, 0, 10, 0.1, false),

	floatSpec("Settling", "height_bias_threshold", "Height bias threshold", func(p *Params) *float64 { return &p.HeightBiasThreshold }, 0, 200, 0.5, true),
	floatSpec("Settling", "height_reject_max_prob", "Max reject probability", func(p *Params) *float64 { return &p.HeightRejectMaxProb }, 0, 1, 0.05, true),
}

func lookupSpec(key string) (paramSpec, bool) {
	for _, spec := range paramSpecs {
		if spec.key == key {
			return spec, true
		}
	}
	return paramSpec{}, false
}

func (s paramSpec) clamp(v float64) float64 {
	if s.hasMin && v < s.min {
		v = s.min
	}
	if s.hasMax && v > s.max {
		v = s.max
	}
	return v
}

// value reads the parameter's field as a float64 (milliseconds for durations).
func (s paramSpec) value(p *Params) float64 {
	switch s.kind {
	case kindInt:
		return float64(*s.int(p))
	case kindMillis:
		return float64(*s.dur(p)) / float64(time.Millisecond)
	default:
		return *s.float(p)
	}
}

// set stores v into the parameter's field after clamping.
func (s paramSpec) set(p *Params, v float64) {
	v = s.clamp(v)
	switch s.kind {
	case kindInt:
		*s.int(p) = int(v)
	case kindMillis:
		*s.dur(p) = time.Duration(v * float64(time.Millisecond))
	default:
		*s.float(p) = v
	}
}

func (s paramSpec) format(p *Params) string {
	switch s.kind {
	case kindInt:
		return strconv.Itoa(*s.int(p))
	case kindMillis:
		return strconv.FormatInt(s.dur(p).Milliseconds(), 10)
	default:
		return strconv.FormatFloat(*s.float(p), 'f', -1, 64)
	}
}

func (s paramSpec) paramType() core.ParamType {
	if s.kind == kindFloat {
		return core.ParamTypeFloat
	}
	return core.ParamTypeInt
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unknown keys and unparsable values are ignored.
func FromMap(cfg map[string]string) Config {
	return ApplyMap(DefaultConfig(), cfg)
}

// ApplyMap overlays the key/value pairs onto base.
func ApplyMap(base Config, cfg map[string]string) Config {
	c := base
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["base_color"]; ok {
		if parsed, ok := ParseHexColor(v); ok {
			c.BaseColor = parsed
		}
	}
	for _, spec := range paramSpecs {
		v, ok := cfg[spec.key]
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		spec.set(&c.Params, parsed)
	}
	c.Params = c.Params.normalized()
	return c
}

// normalized repairs inverted ranges and non-positive timings.
func (p Params) normalized() Params {
	if p.ColumnWidth <= 0 {
		p.ColumnWidth = 1
	}
	if p.MaxRadius < p.MinRadius {
		p.MaxRadius = p.MinRadius
	}
	if p.LargeMaxRadius < p.LargeMinRadius {
		p.LargeMaxRadius = p.LargeMinRadius
	}
	if p.TickDuration <= 0 {
		p.TickDuration = time.Second / 60
	}
	if p.RelaxInterval < 1 {
		p.RelaxInterval = 1
	}
	return p
}

// ParseHexColor accepts "rrggbb" or "#rrggbb" and returns an opaque colour.
func ParseHexColor(s string) (color.RGBA, bool) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}
