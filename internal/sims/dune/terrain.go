package dune

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// terrainAlpha is the opacity frozen grains are painted with.
const terrainAlpha = 230

// kappa places cubic Bézier control points so four segments approximate a
// circle.
const kappa = 0.5522847498

// Terrain is the persistent raster of immobile grains. It is written only when
// a grain freezes and is otherwise read-only.
type Terrain struct {
	img     *image.RGBA
	z       *vector.Rasterizer
	version uint64
}

func newTerrain(w, h int) *Terrain {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Terrain{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		z:   vector.NewRasterizer(1, 1),
	}
}

// Image exposes the backing buffer. Callers must treat it as read-only.
func (t *Terrain) Image() *image.RGBA { return t.img }

// Version increments every time pixels change, letting renderers skip
// redundant uploads.
func (t *Terrain) Version() uint64 { return t.version }

// AlphaAt returns the opacity at (x, y), or 0 outside the raster.
func (t *Terrain) AlphaAt(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}.In(t.img.Rect)) {
		return 0
	}
	return t.img.Pix[t.img.PixOffset(x, y)+3]
}

// Clear makes every pixel transparent.
func (t *Terrain) Clear() {
	clear(t.img.Pix)
	t.version++
}

// FillCircle composites a filled circle over the raster.
func (t *Terrain) FillCircle(cx, cy, r float64, c color.Color) {
	if FillDisc(t.z, t.img, cx, cy, r, c) {
		t.version++
	}
}

// FillDisc composites an anti-aliased disc of colour c over dst using z as
// scratch space. It reports whether the disc touched dst at all.
func FillDisc(z *vector.Rasterizer, dst draw.Image, cx, cy, r float64, c color.Color) bool {
	if r <= 0 {
		return false
	}
	bounds := image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r)), int(math.Ceil(cy+r)),
	).Intersect(dst.Bounds())
	if bounds.Empty() {
		return false
	}

	// Rasterizer space starts at the clipped bounds' origin.
	ox := float32(cx - float64(bounds.Min.X))
	oy := float32(cy - float64(bounds.Min.Y))
	rr := float32(r)
	k := float32(kappa) * rr

	z.Reset(bounds.Dx(), bounds.Dy())
	z.DrawOp = draw.Over
	z.MoveTo(ox+rr, oy)
	z.CubeTo(ox+rr, oy+k, ox+k, oy+rr, ox, oy+rr)
	z.CubeTo(ox-k, oy+rr, ox-rr, oy+k, ox-rr, oy)
	z.CubeTo(ox-rr, oy-k, ox-k, oy-rr, ox, oy-rr)
	z.CubeTo(ox+k, oy-rr, ox+rr, oy-k, ox+rr, oy)
	z.ClosePath()
	z.Draw(dst, bounds, image.NewUniform(c), image.Point{})
	return true
}

// grainRasterColor resolves the colour a frozen grain is painted with. A grain
// without an opaque colour uses the default base colour.
func grainRasterColor(c color.RGBA) color.NRGBA {
	if c.A == 0 {
		c = DefaultBaseColor
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: terrainAlpha}
}
