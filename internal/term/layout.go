package term

import (
	"image"
	"image/color"

	"sand-dune/internal/render"
)

// statusRows is the number of terminal rows reserved below the view.
const statusRows = 1

// Layout maps a terminal of Cols x Rows view cells onto simulation pixels.
// Every cell shows two vertically stacked half-block pixels, each covering
// Density x Density simulation pixels.
type Layout struct {
	Cols, Rows int
	Density    int
}

// NewLayout fits a layout to a terminal of the given size, leaving room for
// the status line.
func NewLayout(termW, termH, density int) Layout {
	return Layout{
		Cols:    max(termW, 1),
		Rows:    max(termH-statusRows, 1),
		Density: max(density, 1),
	}
}

// SimSize returns the viewport the simulation should run at.
func (l Layout) SimSize() (w, h int) {
	return l.Cols * l.Density, l.Rows * 2 * l.Density
}

// CellToSim returns the simulation point at the centre of cell (x, y).
func (l Layout) CellToSim(x, y int) (float64, float64) {
	d := float64(l.Density)
	return (float64(x) + 0.5) * d, (float64(y)*2 + 1) * d
}

// Cell is the pair of colours drawn in one terminal cell.
type Cell struct {
	Top, Bottom color.RGBA
}

// Cells downsamples a composed frame into the layout's half-block cells,
// row-major.
func (l Layout) Cells(frame *image.RGBA) []Cell {
	px := render.Downsample(frame, l.Cols, l.Rows*2)
	cells := make([]Cell, l.Cols*l.Rows)
	for y := 0; y < l.Rows; y++ {
		for x := 0; x < l.Cols; x++ {
			cells[y*l.Cols+x] = Cell{
				Top:    px[(2*y)*l.Cols+x],
				Bottom: px[(2*y+1)*l.Cols+x],
			}
		}
	}
	return cells
}
