package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"sand-dune/internal/core"
	"sand-dune/internal/sims/dune"
)

// Feed is the read-only view of a dune world consumed by renderers.
type Feed interface {
	Size() core.Size
	Terrain() *dune.Terrain
	MobileGrains(dst []dune.GrainView) []dune.GrainView
	Particles(dst []dune.ParticleView) []dune.ParticleView
}

// Background is the colour behind the terrain.
var Background = color.RGBA{R: 18, G: 20, B: 28, A: 255}

// minDiscRadius keeps grains smaller than a pixel visible.
const minDiscRadius = 0.5

var background = image.NewUniform(Background)

// Compositor paints a full frame in software: background, frozen terrain,
// mobile grains and falling particles, in that order.
type Compositor struct {
	img       *image.RGBA
	z         *vector.Rasterizer
	grains    []dune.GrainView
	particles []dune.ParticleView
}

// Compose renders feed into the compositor's frame and returns it. The frame
// is reused between calls.
func (c *Compositor) Compose(feed Feed) *image.RGBA {
	size := feed.Size()
	if c.img == nil || c.img.Rect.Dx() != size.W || c.img.Rect.Dy() != size.H {
		c.img = image.NewRGBA(image.Rect(0, 0, size.W, size.H))
	}
	if c.z == nil {
		c.z = vector.NewRasterizer(1, 1)
	}
	draw.Draw(c.img, c.img.Rect, background, image.Point{}, draw.Src)
	terrain := feed.Terrain().Image()
	draw.Draw(c.img, c.img.Rect, terrain, terrain.Rect.Min, draw.Over)

	c.grains = feed.MobileGrains(c.grains[:0])
	for _, g := range c.grains {
		c.disc(g.X, g.Y, g.R, g.Color)
	}
	c.particles = feed.Particles(c.particles[:0])
	for _, p := range c.particles {
		c.disc(p.X, p.Y, p.R, p.Color)
	}
	return c.img
}

func (c *Compositor) disc(x, y, r float64, col color.RGBA) {
	dune.FillDisc(c.z, c.img, x, y, max(r, minDiscRadius), opaque(col))
}

// opaque resolves the colour a grain or particle is drawn with. Entities
// without a colour use the default sand tint.
func opaque(col color.RGBA) color.RGBA {
	if col.A == 0 {
		return dune.DefaultBaseColor
	}
	col.A = 255
	return col
}

// Downsample scales img to a cols x rows grid of colours, row-major, with a
// bilinear kernel so that every source pixel contributes when shrinking.
func Downsample(img *image.RGBA, cols, rows int) []color.RGBA {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	out := make([]color.RGBA, cols*rows)
	if img.Rect.Empty() {
		return out
	}
	small := image.NewRGBA(image.Rect(0, 0, cols, rows))
	draw.BiLinear.Scale(small, small.Rect, img, img.Rect, draw.Src, nil)
	for i := range out {
		px := small.Pix[i*4 : i*4+4 : i*4+4]
		out[i] = color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
	}
	return out
}
