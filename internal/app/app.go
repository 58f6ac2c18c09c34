//go:build ebiten

package app

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/juju/loggo"

	"sand-dune/internal/core"
	"sand-dune/internal/render"
	"sand-dune/internal/ui"
)

var logger = loggo.GetLogger("dune.app")

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	feed    render.Feed
	painter *render.Painter
	hud     *ui.HUD
	overlay *ui.Overlay

	scale    int
	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for the provided simulation. hudWidth is the width of
// the parameter panel in screen pixels; zero hides it.
func New(sim core.Sim, scale int, seed int64, hudWidth int) *Game {
	scale = max(scale, 1)
	size := sim.Size()
	g := &Game{
		sim:     sim,
		painter: render.NewPainter(size.W, size.H),
		overlay: ui.NewOverlay(sim, scale),
		scale:   scale,
		seed:    seed,
	}
	g.feed, _ = sim.(render.Feed)
	if hudWidth > 0 {
		g.hud = ui.NewHUD(sim, hudWidth)
	}
	return g
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
	logger.Infof("reset %s with seed %d", g.sim.Name(), seed)
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if setter, ok := g.sim.(core.BaseColorSetter); ok {
			setter.RandomizeBaseColor()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}

	g.overlay.Update()
	viewW := g.sim.Size().W * g.scale
	consumed := g.hud.Update(viewW)

	if !consumed && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if mx < viewW {
			if spawner, ok := g.sim.(core.Spawner); ok {
				spawner.SpawnBurst(float64(mx)/float64(g.scale), float64(my)/float64(g.scale))
			}
		}
	}

	if !g.paused || g.tickOnce {
		g.sim.Step()
		g.tickOnce = false
	}
	return nil
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.feed != nil {
		g.painter.Draw(screen, g.feed, g.scale)
	}
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.sim.Size().W*g.scale, g.scale)
}

// Layout resizes the simulation to fill the window, minus the HUD panel.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w := max((outsideWidth-g.hud.Width())/g.scale, 1)
	h := max(outsideHeight/g.scale, 1)
	if resizer, ok := g.sim.(core.Resizer); ok {
		if s := g.sim.Size(); s.W != w || s.H != h {
			resizer.Resize(w, h)
		}
	}
	return outsideWidth, outsideHeight
}
