package dune

import "testing"

func TestStabilityMonotonicUntilFreeze(t *testing.T) {
	world := NewWithConfig(testConfig(120, 200))
	g := world.settleAt(&Particle{X: columnCentre(world, 10), Y: 190, R: 2, Color: DefaultBaseColor}, 10)

	prev := g.Stability
	froze := -1
	for tick := 1; tick <= 40; tick++ {
		world.Step()
		if g.Stability < prev {
			t.Fatalf("tick %d: stability decreased %.3f -> %.3f", tick, prev, g.Stability)
		}
		if g.Stability < 0 || g.Stability > 1 {
			t.Fatalf("tick %d: stability %.3f out of range", tick, g.Stability)
		}
		prev = g.Stability
		if g.Immobile && froze < 0 {
			froze = tick
		}
	}
	if froze < 0 {
		t.Fatal("grain never froze")
	}
	if froze > 20 {
		t.Fatalf("grain froze late at tick %d", froze)
	}
	if g.Stability != 1 {
		t.Fatalf("frozen grain should report full stability, got %f", g.Stability)
	}
	if a := world.terrain.AlphaAt(int(g.X), int(g.Y)); a <= terrainAlphaCutoff {
		t.Fatalf("frozen grain not rasterized, alpha %d", a)
	}
}

func TestAgeFreezesBeforeStabilityThreshold(t *testing.T) {
	cfg := testConfig(120, 200)
	cfg.Params.StabilityIncrement = 0
	cfg.Params.GrainFreezeAfter = 5 * cfg.Params.TickDuration
	world := NewWithConfig(cfg)
	g := world.settleAt(&Particle{X: columnCentre(world, 3), Y: 190, R: 1}, 3)

	for tick := 1; tick < 5; tick++ {
		world.Step()
		if g.Immobile {
			t.Fatalf("grain froze too early at tick %d", tick)
		}
	}
	world.Step()
	if !g.Immobile {
		t.Fatal("expected the grain to freeze once it reached the age limit")
	}
}

func TestFrozenGrainNeverChanges(t *testing.T) {
	cfg := testConfig(120, 200)
	cfg.Params.GrainLock = 0
	world := NewWithConfig(cfg)
	stackGrains(world, 7, 1, 1)
	top := world.topGrain(7)
	world.freeze(top)
	x, y, stab := top.X, top.Y, top.Stability

	p := &Particle{X: top.X, Y: top.Y - 0.5, R: 1}
	if world.collideWithGrains(p) {
		t.Fatal("immobile grains must not take part in collisions")
	}

	// The column stands above its neighbours, so relaxation keeps trying.
	for tick := 0; tick < 120; tick++ {
		world.Step()
		if top.X != x || top.Y != y || top.Stability != stab || top.Column != 7 {
			t.Fatalf("tick %d: frozen grain changed: x %.2f->%.2f y %.2f->%.2f stab %.2f->%.2f col %d",
				tick, x, top.X, y, top.Y, stab, top.Stability, top.Column)
		}
		if world.topGrain(7) != top {
			t.Fatalf("tick %d: frozen grain left the top of its column", tick)
		}
	}

	before := world.terrain.Version()
	world.freeze(top)
	if world.terrain.Version() != before {
		t.Fatal("refreezing must not draw again")
	}
}

func TestMobileGrainCountTracksFreeze(t *testing.T) {
	world := NewWithConfig(testConfig(120, 200))
	for i := 0; i < 5; i++ {
		world.settleAt(&Particle{X: columnCentre(world, i+3), Y: 190, R: 1}, i+3)
	}
	if got := world.MobileGrainCount(); got != 5 {
		t.Fatalf("expected 5 mobile grains, got %d", got)
	}
	if got := len(world.MobileGrains(nil)); got != 5 {
		t.Fatalf("render feed lists %d mobile grains, want 5", got)
	}
	for i := 0; i < 30; i++ {
		world.Step()
	}
	if got := world.MobileGrainCount(); got != 0 {
		t.Fatalf("expected every grain to freeze, %d still mobile", got)
	}
	if got := world.GrainCount(); got != 5 {
		t.Fatalf("frozen grains must stay in their columns, got %d", got)
	}
	if world.Now() != 30*world.cfg.Params.TickDuration {
		t.Fatalf("unexpected clock %v", world.Now())
	}
}

// With the default parameters a grain reaches the stability threshold while
// its lock still holds, so relaxation never migrates it.
func TestDefaultGrainFreezesWhileLocked(t *testing.T) {
	world := NewWithConfig(testConfig(120, 200))
	g := world.settleAt(&Particle{X: columnCentre(world, 12), Y: 190, R: 1, Color: DefaultBaseColor}, 12)

	for tick := 1; tick <= 40 && !g.Immobile; tick++ {
		world.Step()
	}
	if !g.Immobile {
		t.Fatal("grain never froze")
	}
	if world.now >= g.LockUntil {
		t.Fatalf("grain froze at %v, after its lock expired at %v", world.now, g.LockUntil)
	}
	if g.Column != 12 {
		t.Fatalf("locked grain migrated to column %d", g.Column)
	}
}
