//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"sand-dune/internal/sims/dune"
)

// Painter draws a dune world onto an ebiten screen. The terrain texture is
// uploaded only when the terrain raster changed.
type Painter struct {
	w, h    int
	terrain *ebiten.Image
	version uint64
	synced  bool

	grains    []dune.GrainView
	particles []dune.ParticleView
}

// NewPainter allocates a painter for a viewport of size w*h.
func NewPainter(w, h int) *Painter {
	p := &Painter{}
	p.resize(w, h)
	return p
}

func (p *Painter) resize(w, h int) {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	if p.terrain != nil {
		p.terrain.Dispose()
	}
	p.w, p.h = w, h
	p.terrain = ebiten.NewImage(w, h)
	p.synced = false
}

// Draw paints the background, the frozen terrain, mobile grains and falling
// particles, scaled by scale.
func (p *Painter) Draw(dst *ebiten.Image, feed Feed, scale int) {
	if scale <= 0 {
		scale = 1
	}
	size := feed.Size()
	if size.W != p.w || size.H != p.h {
		p.resize(size.W, size.H)
	}

	terrain := feed.Terrain()
	if !p.synced || terrain.Version() != p.version {
		p.terrain.WritePixels(terrain.Image().Pix)
		p.version = terrain.Version()
		p.synced = true
	}

	dst.Fill(Background)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(p.terrain, op)

	s := float32(scale)
	p.grains = feed.MobileGrains(p.grains[:0])
	for _, g := range p.grains {
		drawDisc(dst, g.X, g.Y, g.R, s, g.Color)
	}
	p.particles = feed.Particles(p.particles[:0])
	for _, pt := range p.particles {
		drawDisc(dst, pt.X, pt.Y, pt.R, s, pt.Color)
	}
}

func drawDisc(dst *ebiten.Image, x, y, r float64, scale float32, col color.RGBA) {
	radius := max(float32(r)*scale, 0.5)
	vector.DrawFilledCircle(dst, float32(x)*scale, float32(y)*scale, radius, opaque(col), true)
}

// Size returns the dimensions of the terrain texture.
func (p *Painter) Size() (int, int) { return p.w, p.h }
