package term

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gdamore/tcell/v2"

	"sand-dune/internal/sims/dune"
)

func newTestViewer(c *qt.C) (*Viewer, *dune.World, tcell.SimulationScreen) {
	screen := tcell.NewSimulationScreen("UTF-8")
	c.Assert(screen.Init(), qt.Equals, nil)
	c.Cleanup(screen.Fini)
	screen.SetSize(40, 13)

	world := dune.New(10, 10)
	return NewViewer(screen, world, 2, 60, 5), world, screen
}

func TestViewerFitsSimulationToScreen(t *testing.T) {
	c := qt.New(t)
	v, world, screen := newTestViewer(c)
	c.Assert(world.Size().W, qt.Equals, 80)
	c.Assert(world.Size().H, qt.Equals, 48)

	screen.SetSize(30, 9)
	v.handle(tcell.NewEventResize(30, 9))
	c.Assert(world.Size().W, qt.Equals, 60)
	c.Assert(world.Size().H, qt.Equals, 32)

	r, _, _, _ := screen.GetContent(0, 0)
	c.Assert(r, qt.Equals, '▀')
}

func TestViewerMouseHoldSpawns(t *testing.T) {
	c := qt.New(t)
	v, world, _ := newTestViewer(c)

	v.handleMouse(20, 2, tcell.Button1)
	v.tick(1)
	c.Assert(world.ParticleCount() > 0, qt.IsTrue)

	before := world.ParticleCount() + world.GrainCount()
	v.handleMouse(20, 2, tcell.ButtonNone)
	v.tick(1)
	c.Assert(world.ParticleCount()+world.GrainCount(), qt.Equals, before)

	// The status row is not part of the view.
	v.handleMouse(5, 12, tcell.Button1)
	c.Assert(v.holding, qt.IsFalse)
}

func TestViewerKeys(t *testing.T) {
	c := qt.New(t)
	v, world, _ := newTestViewer(c)

	c.Assert(v.handleKey(tcell.KeyRune, 'p'), qt.IsTrue)
	c.Assert(v.paused, qt.IsTrue)
	v.tick(3)
	c.Assert(world.Ticks(), qt.Equals, 0)

	v.handleKey(tcell.KeyRune, 'n')
	v.tick(3)
	c.Assert(world.Ticks(), qt.Equals, 1)

	v.handleKey(tcell.KeyEnter, 0)
	v.tick(2)
	c.Assert(world.Ticks(), qt.Equals, 3)

	v.handleKey(tcell.KeyRune, 'r')
	c.Assert(world.Ticks(), qt.Equals, 0)

	before := world.BaseColor()
	for i := 0; i < 5 && world.BaseColor() == before; i++ {
		v.handleKey(tcell.KeyRune, ' ')
	}
	c.Assert(world.BaseColor(), qt.Not(qt.Equals), before)

	c.Assert(v.handleKey(tcell.KeyRune, 'q'), qt.IsFalse)
	c.Assert(v.handleKey(tcell.KeyEscape, 0), qt.IsFalse)
}
