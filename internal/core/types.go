package core

import (
	"image/color"
	"sort"
)

// Size describes the dimensions of a simulation viewport in pixels.
type Size struct {
	W int
	H int
}

// Sim defines the minimal contract a simulation must implement.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
}

// Spawner accepts spawn requests from pointer input.
type Spawner interface {
	// Spawn creates at most one particle near (x, y) and reports whether it did.
	Spawn(x, y float64) bool
	// SpawnBurst performs the configured number of spawn attempts near (x, y)
	// and returns how many particles were created.
	SpawnBurst(x, y float64) int
}

// Resizer is implemented by sims whose state is tied to the viewport size.
type Resizer interface {
	Resize(w, h int)
}

// BaseColorSetter is implemented by sims that tint spawned material.
type BaseColorSetter interface {
	BaseColor() color.RGBA
	SetBaseColor(c color.RGBA)
	RandomizeBaseColor()
}

// Stats exposes the counters shown on the HUD.
type Stats interface {
	ParticleCount() int
	MobileGrainCount() int
}

// Factory constructs a Sim using an optional configuration map.
type Factory func(cfg map[string]string) Sim

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}

// SimNames returns the registered names in sorted order.
func SimNames() []string {
	names := make([]string, 0, len(sims))
	for name := range sims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
