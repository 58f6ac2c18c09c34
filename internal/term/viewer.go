package term

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/juju/loggo"

	"sand-dune/internal/core"
	"sand-dune/internal/render"
)

var logger = loggo.GetLogger("dune.term")

// Sim is what the terminal viewer needs from a simulation.
type Sim interface {
	core.Sim
	core.Spawner
	core.Resizer
	core.BaseColorSetter
	core.Stats
	render.Feed
}

// Viewer runs a simulation inside a terminal, drawing two simulation rows per
// character cell with upper half blocks.
type Viewer struct {
	screen  tcell.Screen
	sim     Sim
	layout  Layout
	density int
	comp    render.Compositor
	clock   *core.FixedStep

	seed     int64
	paused   bool
	tickOnce bool

	holding      bool
	holdX, holdY float64
}

// NewViewer wires sim to an initialised screen and resizes the simulation to
// fill it. density is the number of simulation pixels per half block.
func NewViewer(screen tcell.Screen, sim Sim, density, tps int, seed int64) *Viewer {
	v := &Viewer{
		screen:  screen,
		sim:     sim,
		density: max(density, 1),
		clock:   core.NewFixedStep(tps),
		seed:    seed,
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()
	v.fit()
	return v
}

// fit resizes the simulation to the current screen size.
func (v *Viewer) fit() {
	w, h := v.screen.Size()
	v.layout = NewLayout(w, h, v.density)
	sw, sh := v.layout.SimSize()
	if s := v.sim.Size(); s.W != sw || s.H != sh {
		v.sim.Resize(sw, sh)
		logger.Debugf("terminal %dx%d, simulation %dx%d", w, h, sw, sh)
	}
}

// Run processes input and advances the simulation until the user quits or ctx
// is done. Terminal events are read on a separate goroutine; only Run's
// goroutine touches the simulation.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(v.clock.Step())
	defer ticker.Stop()
	v.draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !v.handle(ev) {
				return nil
			}
		case <-ticker.C:
			v.tick(v.clock.Pending())
			v.draw()
		}
	}
}

// tick runs up to n simulation steps, spawning under a held mouse button
// before each one.
func (v *Viewer) tick(n int) {
	if v.paused && !v.tickOnce {
		return
	}
	if v.tickOnce {
		n = 1
		v.tickOnce = false
	}
	for i := 0; i < n; i++ {
		if v.holding {
			v.sim.SpawnBurst(v.holdX, v.holdY)
		}
		v.sim.Step()
	}
}

// handle applies one terminal event. It returns false when the viewer should
// stop.
func (v *Viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventMouse:
		x, y := ev.Position()
		v.handleMouse(x, y, ev.Buttons())
	case *tcell.EventResize:
		v.screen.Sync()
		v.fit()
		v.draw()
	}
	return true
}

func (v *Viewer) handleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		v.paused = false
		return true
	case tcell.KeyRune:
	default:
		return true
	}
	switch r {
	case 'q':
		return false
	case ' ':
		v.sim.RandomizeBaseColor()
	case 'p':
		v.paused = !v.paused
	case 'n':
		v.tickOnce = true
	case 'r':
		v.sim.Reset(v.seed)
	case 's':
		v.seed = time.Now().UnixNano()
		v.sim.Reset(v.seed)
	}
	return true
}

func (v *Viewer) handleMouse(x, y int, buttons tcell.ButtonMask) {
	if buttons&tcell.Button1 == 0 || y >= v.layout.Rows {
		v.holding = false
		return
	}
	v.holding = true
	v.holdX, v.holdY = v.layout.CellToSim(x, y)
}

func (v *Viewer) draw() {
	frame := v.comp.Compose(v.sim)
	cells := v.layout.Cells(frame)
	for y := 0; y < v.layout.Rows; y++ {
		for x := 0; x < v.layout.Cols; x++ {
			c := cells[y*v.layout.Cols+x]
			style := tcell.StyleDefault.
				Foreground(rgb(c.Top.R, c.Top.G, c.Top.B)).
				Background(rgb(c.Bottom.R, c.Bottom.G, c.Bottom.B))
			v.screen.SetContent(x, y, '▀', nil, style)
		}
	}
	v.drawStatus()
	v.screen.Show()
}

func (v *Viewer) drawStatus() {
	base := v.sim.BaseColor()
	status := fmt.Sprintf(" %s  particles %d  mobile %d  colour #%02x%02x%02x",
		v.sim.Name(), v.sim.ParticleCount(), v.sim.MobileGrainCount(), base.R, base.G, base.B)
	if v.paused {
		status += "  [paused]"
	}
	status += "  | space colour  p pause  n step  r reset  s reseed  q quit"

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	w, _ := v.screen.Size()
	y := v.layout.Rows
	runes := []rune(status)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		v.screen.SetContent(x, y, r, nil, style)
	}
}

func rgb(r, g, b uint8) tcell.Color {
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
