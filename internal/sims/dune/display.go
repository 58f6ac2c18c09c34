package dune

import (
	"image/color"

	pkgcore "sand-dune/pkg/core"
)

// colorShift is the per-channel offset of the lighter and darker variants.
const colorShift = 30

// colorVariant picks the base colour, a lighter or a darker variant with equal
// probability.
func colorVariant(rng *pkgcore.RNG, base color.RGBA) color.RGBA {
	switch rng.IntN(3) {
	case 0:
		return color.RGBA{R: base.R, G: base.G, B: base.B, A: 255}
	case 1:
		return shiftColor(base, colorShift)
	default:
		return shiftColor(base, -colorShift)
	}
}

func shiftColor(c color.RGBA, delta int) color.RGBA {
	return color.RGBA{
		R: shiftChannel(c.R, delta),
		G: shiftChannel(c.G, delta),
		B: shiftChannel(c.B, delta),
		A: 255,
	}
}

func shiftChannel(v uint8, delta int) uint8 {
	return uint8(clampInt(int(v)+delta, 0, 255))
}

// randomBaseColor draws a warm, reasonably bright sand tint.
func randomBaseColor(rng *pkgcore.RNG) color.RGBA {
	return color.RGBA{
		R: uint8(rng.Range(120, 255)),
		G: uint8(rng.Range(80, 230)),
		B: uint8(rng.Range(60, 220)),
		A: 255,
	}
}

// BaseColor returns the tint new particles are derived from.
func (w *World) BaseColor() color.RGBA { return w.baseColor }

// SetBaseColor changes the tint used for subsequently spawned particles.
// Particles and grains that already exist keep their colour.
func (w *World) SetBaseColor(c color.RGBA) {
	c.A = 255
	w.baseColor = c
}

// RandomizeBaseColor picks a new random base colour.
func (w *World) RandomizeBaseColor() {
	w.baseColor = randomBaseColor(w.rng)
	logger.Debugf("base colour now #%02x%02x%02x", w.baseColor.R, w.baseColor.G, w.baseColor.B)
}
