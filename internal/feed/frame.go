package feed

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"image/png"
	"math"

	"gopkg.in/errgo.v1"

	"sand-dune/internal/core"
	"sand-dune/internal/render"
	"sand-dune/internal/sims/dune"
)

// Sim is what the feed server needs from a simulation.
type Sim interface {
	core.Sim
	core.Spawner
	core.BaseColorSetter
	core.Stats
	render.Feed
	Heights() []float64
	Ticks() int
}

// Frame is one snapshot of the render feed as sent to clients.
type Frame struct {
	Type             string    `json:"type"`
	Tick             int       `json:"tick"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	Heights          []float64 `json:"heights"`
	Grains           []Disc    `json:"grains"`
	Particles        []Disc    `json:"particles"`
	ParticleCount    int       `json:"particleCount"`
	MobileGrainCount int       `json:"mobileGrainCount"`
	BaseColor        string    `json:"baseColor"`
	Paused           bool      `json:"paused,omitempty"`
	TerrainVersion   uint64    `json:"terrainVersion"`
	// Terrain holds the frozen raster as a PNG data URL. It is only set
	// when the raster changed since the last frame that carried it.
	Terrain string `json:"terrain,omitempty"`
}

// Disc is a mobile grain or falling particle.
type Disc struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	R         float64 `json:"r"`
	Color     string  `json:"color"`
	Stability float64 `json:"stability,omitempty"`
}

// frameBuilder turns the simulation state into frames, reusing its scratch
// slices and remembering which terrain version clients have.
type frameBuilder struct {
	grains    []dune.GrainView
	particles []dune.ParticleView

	sentVersion uint64
	sentTick    int
	hasSent     bool
}

// terrainInterval is the minimum number of ticks between two terrain uploads
// while the raster keeps changing.
const terrainInterval = 10

func (b *frameBuilder) build(sim Sim, forceTerrain bool) (Frame, error) {
	size := sim.Size()
	terrain := sim.Terrain()
	f := Frame{
		Type:             "frame",
		Tick:             sim.Ticks(),
		Width:            size.W,
		Height:           size.H,
		Heights:          roundAll(sim.Heights()),
		ParticleCount:    sim.ParticleCount(),
		MobileGrainCount: sim.MobileGrainCount(),
		BaseColor:        hexColor(sim.BaseColor()),
		TerrainVersion:   terrain.Version(),
	}

	b.grains = sim.MobileGrains(b.grains[:0])
	f.Grains = make([]Disc, 0, len(b.grains))
	for _, g := range b.grains {
		f.Grains = append(f.Grains, Disc{
			X:         round2(g.X),
			Y:         round2(g.Y),
			R:         round2(g.R),
			Color:     hexColor(g.Color),
			Stability: round2(g.Stability),
		})
	}
	b.particles = sim.Particles(b.particles[:0])
	f.Particles = make([]Disc, 0, len(b.particles))
	for _, p := range b.particles {
		f.Particles = append(f.Particles, Disc{
			X:     round2(p.X),
			Y:     round2(p.Y),
			R:     round2(p.R),
			Color: hexColor(p.Color),
		})
	}

	changed := terrain.Version() != b.sentVersion
	due := f.Tick-b.sentTick >= terrainInterval || f.Tick < b.sentTick
	if forceTerrain || !b.hasSent || (changed && due) {
		data, err := encodeTerrain(terrain)
		if err != nil {
			return Frame{}, errgo.Mask(err)
		}
		f.Terrain = data
		b.sentVersion = terrain.Version()
		b.sentTick = f.Tick
		b.hasSent = true
	}
	return f, nil
}

// encodeTerrain returns the raster as a PNG data URL.
func encodeTerrain(t *dune.Terrain) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.Image()); err != nil {
		return "", errgo.Notef(err, "cannot encode terrain")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = round2(v)
	}
	return out
}
