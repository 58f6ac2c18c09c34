//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"sand-dune/internal/core"
	"sand-dune/internal/sims/dune"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type heightProvider interface {
	Heights() []float64
}

type grainProvider interface {
	MobileGrains(dst []dune.GrainView) []dune.GrainView
}

// Overlay draws optional debugging visuals on top of the dune view:
// 1 toggles the column height profile, 2 the column grid and 3 a stability
// tint over mobile grains.
type Overlay struct {
	sim   core.Sim
	scale int

	showProfile   bool
	showGrid      bool
	showStability bool

	pixel  *ebiten.Image
	grains []dune.GrainView
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: max(scale, 1)}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles overlays from the number keys.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showProfile = !o.showProfile
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showGrid = !o.showGrid
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showStability = !o.showStability
	}
}

// Draw renders the enabled overlays onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	if size.W <= 0 || size.H <= 0 {
		return
	}
	heights := o.heights()
	if o.showGrid && len(heights) > 0 {
		o.drawGrid(screen, size, len(heights))
	}
	if o.showStability {
		if provider, ok := o.sim.(grainProvider); ok {
			o.drawStability(screen, provider)
		}
	}
	if o.showProfile && len(heights) > 0 {
		o.drawProfile(screen, size, heights)
	}
}

func (o *Overlay) heights() []float64 {
	if provider, ok := o.sim.(heightProvider); ok {
		return provider.Heights()
	}
	return nil
}

// drawProfile traces the column height table as a polyline, coloured by the
// local slope.
func (o *Overlay) drawProfile(screen *ebiten.Image, size core.Size, heights []float64) {
	s := float64(o.scale)
	colW := float64(size.W) / float64(len(heights))
	const steepSlope = 4.0
	prevX, prevY := 0.0, 0.0
	for i, h := range heights {
		x := (float64(i) + 0.5) * colW * s
		y := (float64(size.H) - h) * s
		if i > 0 {
			slope := math.Abs(h - heights[i-1])
			o.drawLine(screen, prevX, prevY, x, y, math.Max(1, s*0.6), interpolateColor(clamp01(slope/steepSlope)))
		}
		prevX, prevY = x, y
	}
}

func (o *Overlay) drawGrid(screen *ebiten.Image, size core.Size, cols int) {
	s := float64(o.scale)
	colW := float64(size.W) / float64(cols)
	col := color.RGBA{R: 90, G: 130, B: 170, A: 60}
	for i := 1; i < cols; i++ {
		x := float64(i) * colW * s
		o.drawLine(screen, x, 0, x, float64(size.H)*s, 1, col)
	}
}

// drawStability marks each mobile grain with a dot from red (just settled)
// to green (about to freeze).
func (o *Overlay) drawStability(screen *ebiten.Image, provider grainProvider) {
	s := float64(o.scale)
	o.grains = provider.MobileGrains(o.grains[:0])
	for _, g := range o.grains {
		t := clamp01(g.Stability)
		col := lerpRGBA(color.RGBA{R: 230, G: 60, B: 50, A: 200}, color.RGBA{R: 60, G: 220, B: 90, A: 200}, t)
		o.drawPoint(screen, g.X*s, g.Y*s, math.Max(2, g.R*s*1.4), col)
	}
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
