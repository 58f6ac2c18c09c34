package render

import (
	"image"
	"image/color"
	"testing"

	qt "github.com/frankban/quicktest"

	"sand-dune/internal/core"
	"sand-dune/internal/sims/dune"
)

type fakeFeed struct {
	terrain   *dune.Terrain
	size      core.Size
	grains    []dune.GrainView
	particles []dune.ParticleView
}

func newFakeFeed(w, h int) *fakeFeed {
	world := dune.New(w, h)
	return &fakeFeed{terrain: world.Terrain(), size: world.Size()}
}

func (f *fakeFeed) Size() core.Size        { return f.size }
func (f *fakeFeed) Terrain() *dune.Terrain { return f.terrain }
func (f *fakeFeed) MobileGrains(dst []dune.GrainView) []dune.GrainView {
	return append(dst, f.grains...)
}
func (f *fakeFeed) Particles(dst []dune.ParticleView) []dune.ParticleView {
	return append(dst, f.particles...)
}

func pixelAt(img *image.RGBA, x, y int) color.RGBA {
	off := img.PixOffset(x, y)
	return color.RGBA{R: img.Pix[off], G: img.Pix[off+1], B: img.Pix[off+2], A: img.Pix[off+3]}
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d >= -tol && d <= tol
}

func TestComposeLayersInOrder(t *testing.T) {
	c := qt.New(t)
	feed := newFakeFeed(40, 30)
	feed.terrain.FillCircle(10, 20, 4, color.NRGBA{R: 255, A: 255})
	feed.grains = []dune.GrainView{{X: 10.5, Y: 20.5, R: 1, Color: color.RGBA{G: 255, A: 255}}}
	feed.particles = []dune.ParticleView{{X: 30.5, Y: 5.5, R: 1.5, Color: color.RGBA{B: 255, A: 255}}}

	var comp Compositor
	img := comp.Compose(feed)
	c.Assert(img.Rect, qt.Equals, image.Rect(0, 0, 40, 30))

	c.Assert(pixelAt(img, 0, 0), qt.Equals, Background)
	terrain := pixelAt(img, 8, 20)
	c.Assert(terrain.R > 240 && terrain.G < 10 && terrain.B < 10, qt.IsTrue, qt.Commentf("terrain pixel %+v", terrain))
	grain := pixelAt(img, 10, 20)
	c.Assert(grain.G > 245 && grain.R < 10, qt.IsTrue, qt.Commentf("grain pixel %+v", grain))
	particle := pixelAt(img, 30, 5)
	c.Assert(particle.B > 245 && particle.R < 10, qt.IsTrue, qt.Commentf("particle pixel %+v", particle))

	feed.size = core.Size{W: 20, H: 10}
	feed.terrain = dune.New(20, 10).Terrain()
	c.Assert(comp.Compose(feed).Rect, qt.Equals, image.Rect(0, 0, 20, 10))
}

func TestComposeBlendsTranslucentTerrain(t *testing.T) {
	c := qt.New(t)
	feed := newFakeFeed(20, 20)
	feed.terrain.FillCircle(10, 10, 6, color.NRGBA{R: 255, A: 128})

	var comp Compositor
	px := pixelAt(comp.Compose(feed), 10, 10)
	// Half of the red over half of the background.
	want := uint8((255*128 + int(Background.R)*127) / 255)
	c.Assert(near(px.R, want, 3), qt.IsTrue, qt.Commentf("got %+v, want red about %d", px, want))
	c.Assert(px.A, qt.Equals, uint8(255))
}

func TestComposeTinyAndColourlessDiscs(t *testing.T) {
	c := qt.New(t)
	feed := newFakeFeed(8, 8)
	feed.grains = []dune.GrainView{
		{X: 3.5, Y: 4.5, R: 0.2},
		{X: -20, Y: -20, R: 2, Color: color.RGBA{R: 1, A: 255}},
	}

	var comp Compositor
	img := comp.Compose(feed)
	px := pixelAt(img, 3, 4)
	c.Assert(px.R > 150 && px.G > 120, qt.IsTrue, qt.Commentf("tiny grain pixel %+v", px))
	c.Assert(pixelAt(img, 0, 0), qt.Equals, Background)
}

func TestOpaque(t *testing.T) {
	c := qt.New(t)
	c.Assert(opaque(color.RGBA{}), qt.Equals, dune.DefaultBaseColor)
	c.Assert(opaque(color.RGBA{R: 9, A: 40}), qt.Equals, color.RGBA{R: 9, A: 255})
}

func TestDownsample(t *testing.T) {
	c := qt.New(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	fill := color.RGBA{R: 200, G: 40, A: 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	cells := Downsample(img, 2, 1)
	c.Assert(cells, qt.HasLen, 2)
	for _, cell := range cells {
		c.Assert(near(cell.R, fill.R, 1) && near(cell.G, fill.G, 1) && cell.A == 255, qt.IsTrue, qt.Commentf("cell %+v", cell))
	}

	fine := Downsample(img, 8, 4)
	c.Assert(fine, qt.HasLen, 32)
	c.Assert(near(fine[0].R, fill.R, 1), qt.IsTrue)

	c.Assert(Downsample(img, 0, 3), qt.IsNil)
	c.Assert(Downsample(image.NewRGBA(image.Rectangle{}), 2, 2), qt.DeepEquals, make([]color.RGBA, 4))
}

func TestDownsampleKeepsSmallFeatures(t *testing.T) {
	c := qt.New(t)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.SetRGBA(5, 5, color.RGBA{R: 255, A: 255})

	cells := Downsample(img, 2, 2)
	c.Assert(cells[3].R > 0, qt.IsTrue, qt.Commentf("single pixel lost: %+v", cells))
	c.Assert(cells[3].R > cells[0].R, qt.IsTrue, qt.Commentf("far cell outweighs near cell: %+v", cells))
}
