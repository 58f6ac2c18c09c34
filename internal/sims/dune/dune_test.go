package dune

import (
	"image/color"
	"math"
	"slices"
	"testing"

	"sand-dune/internal/core"
)

func TestSpawnCapacityBoundary(t *testing.T) {
	cfg := testConfig(120, 200)
	cfg.Params.MaxParticles = 5
	world := NewWithConfig(cfg)

	for i := 0; i < 4; i++ {
		if !world.Spawn(60, 20) {
			t.Fatalf("spawn %d rejected below capacity", i)
		}
	}
	if world.ParticleCount() != 4 {
		t.Fatalf("expected 4 particles, got %d", world.ParticleCount())
	}
	if !world.Spawn(60, 20) {
		t.Fatal("spawning at max-1 must produce exactly one particle")
	}
	if world.ParticleCount() != 5 {
		t.Fatalf("expected 5 particles, got %d", world.ParticleCount())
	}
	if world.Spawn(60, 20) {
		t.Fatal("spawning at capacity must be rejected")
	}
	if got := world.SpawnBurst(60, 20); got != 0 {
		t.Fatalf("burst at capacity created %d particles", got)
	}
	if world.ParticleCount() != 5 {
		t.Fatalf("expected capacity to hold at 5, got %d", world.ParticleCount())
	}
}

func TestSpawnRespectsRangesAndViewport(t *testing.T) {
	world := NewWithConfig(testConfig(120, 200))
	prm := world.cfg.Params
	for i := 0; i < 400; i++ {
		world.Spawn(2, 198)
	}
	for _, p := range world.particles {
		if p.X < 0 || p.X > 119 || p.Y < 0 || p.Y > 199 {
			t.Fatalf("particle spawned outside the viewport at (%.2f, %.2f)", p.X, p.Y)
		}
		small := p.R >= prm.MinRadius && p.R < prm.MaxRadius
		large := p.R >= prm.LargeMinRadius && p.R < prm.LargeMaxRadius
		if !small && !large {
			t.Fatalf("radius %.2f outside configured ranges", p.R)
		}
		if p.VY >= -0.6 || p.VY < -1.6 {
			t.Fatalf("initial vertical velocity %.2f outside [-1.6, -0.6)", p.VY)
		}
	}
}

func TestColorVariants(t *testing.T) {
	world := newScriptedWorld(testConfig(120, 200), alwaysLow)
	world.SetBaseColor(color.RGBA{R: 250, G: 20, B: 100})
	world.Spawn(60, 20)
	if got := world.particles[0].Color; got != (color.RGBA{R: 250, G: 20, B: 100, A: 255}) {
		t.Fatalf("expected the exact base colour, got %+v", got)
	}

	if got := shiftColor(color.RGBA{R: 250, G: 20, B: 100}, colorShift); got != (color.RGBA{R: 255, G: 50, B: 130, A: 255}) {
		t.Fatalf("lighter variant not clamped: %+v", got)
	}
	if got := shiftColor(color.RGBA{R: 250, G: 20, B: 100}, -colorShift); got != (color.RGBA{R: 220, G: 0, B: 70, A: 255}) {
		t.Fatalf("darker variant not clamped: %+v", got)
	}

	seeded := NewWithConfig(testConfig(120, 200))
	seen := map[color.RGBA]bool{}
	for i := 0; i < 200; i++ {
		seen[colorVariant(seeded.rng, DefaultBaseColor)] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected three colour variants, got %d", len(seen))
	}

	seeded.RandomizeBaseColor()
	c := seeded.BaseColor()
	if c.R < 120 || c.G < 80 || c.G >= 230 || c.B < 60 || c.B >= 220 {
		t.Fatalf("random base colour out of range: %+v", c)
	}
}

func TestHeightConservationEveryTick(t *testing.T) {
	world := NewWithConfig(testConfig(180, 160))
	for tick := 0; tick < 600; tick++ {
		if tick < 300 {
			world.SpawnBurst(90, 20)
		}
		beforeHeight := world.TotalHeight()
		beforeDiameters := diameterSum(world)

		world.Step()

		gained := diameterSum(world) - beforeDiameters
		if d := math.Abs((world.TotalHeight() - beforeHeight) - gained); d > 1e-6 {
			t.Fatalf("tick %d: height changed by %.6f but settled diameters by %.6f",
				tick, world.TotalHeight()-beforeHeight, gained)
		}
	}
	if world.SettledCount() == 0 {
		t.Fatal("expected particles to settle")
	}
	if d := math.Abs(world.TotalHeight() - diameterSum(world)); d > 1e-6 {
		t.Fatalf("column heights drifted from grain mass by %.6f", d)
	}
}

func TestParticleLifetimeForcesSettle(t *testing.T) {
	cfg := testConfig(120, 200)
	cfg.Params.Gravity = 0
	cfg.Params.FreezeAfter = 3 * cfg.Params.TickDuration
	world := NewWithConfig(cfg)
	world.particles = append(world.particles, &Particle{X: columnCentre(world, 9), Y: 20, R: 1, Color: DefaultBaseColor})

	world.Step()
	world.Step()
	if world.ParticleCount() != 1 {
		t.Fatal("particle removed before its lifetime elapsed")
	}
	world.Step()
	if world.ParticleCount() != 0 {
		t.Fatal("expected the expired particle to be force-settled")
	}
	if len(world.grains[9]) != 1 {
		t.Fatalf("expected the forced grain in column 9, got %d", len(world.grains[9]))
	}
	approxEqual(t, world.TotalHeight(), 2, "total height after forced settle")
}

func TestOutOfBoundsParticleIsDropped(t *testing.T) {
	world := NewWithConfig(testConfig(120, 200))
	world.particles = append(world.particles, &Particle{X: -450, Y: 20, R: 1})
	world.Step()
	if world.ParticleCount() != 0 {
		t.Fatal("expected the out-of-bounds particle to be removed")
	}
	if world.GrainCount() != 0 {
		t.Fatal("out-of-bounds particles must not settle")
	}
}

func TestFastContactBouncesInsteadOfSettling(t *testing.T) {
	cfg := testConfig(120, 200)
	cfg.Params.Gravity = 0
	cfg.Params.Drag = 1
	world := NewWithConfig(cfg)
	p := &Particle{X: columnCentre(world, 4), Y: 195, VY: 5, R: 1}
	world.particles = append(world.particles, p)

	world.Step()
	if world.ParticleCount() != 1 {
		t.Fatal("a fast particle should bounce, not settle")
	}
	if p.VY >= 0 || p.VY < -0.5 {
		t.Fatalf("expected a small upward bounce, got vy %.3f", p.VY)
	}
}

func TestSlowContactSettles(t *testing.T) {
	cfg := testConfig(120, 200)
	cfg.Params.Gravity = 0
	cfg.Params.Drag = 1
	world := NewWithConfig(cfg)
	world.particles = append(world.particles, &Particle{X: columnCentre(world, 4), Y: 198.5, VY: 0.5, R: 1})

	world.Step()
	if world.ParticleCount() != 0 || world.GrainCount() != 1 {
		t.Fatalf("expected the particle to settle, particles=%d grains=%d", world.ParticleCount(), world.GrainCount())
	}
}

func TestTerrainRepulsionLiftsParticle(t *testing.T) {
	world := newScriptedWorld(testConfig(120, 200), alwaysLow)
	world.terrain.FillCircle(50, 100, 4, color.NRGBA{R: 200, A: 255})
	p := &Particle{X: 50, Y: 97, R: 1}
	if !world.repulseFromTerrain(p) {
		t.Fatal("expected terrain just below the particle to repel it")
	}
	approxEqual(t, p.VY, -terrainLift, "lift")

	far := &Particle{X: 10, Y: 20, R: 1}
	if world.repulseFromTerrain(far) {
		t.Fatal("particle far from terrain must not be repelled")
	}
}

func TestGrainCollisionPushesParticleAndYields(t *testing.T) {
	world := newScriptedWorld(testConfig(120, 200), alwaysLow)
	g := world.settleAt(&Particle{X: columnCentre(world, 5), Y: 198, R: 1}, 5)
	gx, gy := g.X, g.Y
	p := &Particle{X: g.X, Y: g.Y - 2, R: 1}

	if !world.collideWithGrains(p) {
		t.Fatal("expected a collision with the nearby mobile grain")
	}
	if p.Y >= gy-2 {
		t.Fatalf("particle was not pushed away: y %.3f", p.Y)
	}
	if p.VY >= 0 {
		t.Fatalf("expected an upward impulse, got vy %.3f", p.VY)
	}
	if g.Y <= gy || g.X != gx {
		t.Fatalf("grain should yield slightly downward: (%.3f, %.3f) -> (%.3f, %.3f)", gx, gy, g.X, g.Y)
	}
}

func TestGrainCollisionOnlyReachesTopOfStack(t *testing.T) {
	world := newScriptedWorld(testConfig(120, 200), alwaysLow)
	const ci = 5
	x := columnCentre(world, ci)
	// Spread far enough apart that a particle overlaps one grain at a time.
	for k := 0; k < 6; k++ {
		world.pushGrain(ci, &Grain{X: x, Y: 190 - 10*float64(k), R: 1})
	}
	if world.cfg.Params.CollisionWindow != 4 {
		t.Fatalf("unexpected collision window %d", world.cfg.Params.CollisionWindow)
	}

	fifth := world.grains[ci][1]
	p := &Particle{X: x, Y: fifth.Y + 1, R: 1}
	if world.collideWithGrains(p) {
		t.Fatal("grain below the collision window must not be hit")
	}
	if p.X != x || p.Y != fifth.Y+1 || p.VX != 0 || p.VY != 0 {
		t.Fatalf("particle moved without a collision: %+v", *p)
	}
	if fifth.X != x || fifth.Y != 180 {
		t.Fatalf("buried grain moved: (%.3f, %.3f)", fifth.X, fifth.Y)
	}

	fourth := world.grains[ci][2]
	p = &Particle{X: x, Y: fourth.Y + 1, R: 1}
	if !world.collideWithGrains(p) {
		t.Fatal("grain inside the collision window should be hit")
	}
}

func TestGrainCollisionTakesFirstHitInScanOrder(t *testing.T) {
	world := newScriptedWorld(testConfig(120, 200), alwaysLow)
	const ci = 5
	px := float64(ci)*world.colW + 0.2
	left := &Grain{X: px - 1.2, Y: 100, R: 1}
	own := &Grain{X: px + 1.2, Y: 100, R: 1}
	world.pushGrain(ci-1, left)
	world.pushGrain(ci, own)

	p := &Particle{X: px, Y: 100, R: 1}
	if world.columnOf(p.X) != ci {
		t.Fatalf("particle should sit in column %d, got %d", ci, world.columnOf(p.X))
	}
	if !world.collideWithGrains(p) {
		t.Fatal("expected a collision")
	}
	if left.X >= px-1.2 {
		t.Fatalf("left neighbour grain should yield: x %.3f", left.X)
	}
	if own.X != px+1.2 || own.Y != 100 {
		t.Fatalf("only the first grain hit may move, own column grain at (%.3f, %.3f)", own.X, own.Y)
	}
	if p.X <= px {
		t.Fatalf("particle should be pushed away from the left grain: x %.3f", p.X)
	}
}

func TestResizeClearsState(t *testing.T) {
	world := NewWithConfig(testConfig(120, 200))
	for i := 0; i < 60; i++ {
		world.SpawnBurst(60, 20)
		world.Step()
	}
	if world.GrainCount() == 0 && world.ParticleCount() == 0 {
		t.Fatal("expected some material before resizing")
	}

	world.Resize(300, 150)
	if world.Columns() != 100 {
		t.Fatalf("expected 100 columns, got %d", world.Columns())
	}
	if world.ParticleCount() != 0 || world.GrainCount() != 0 || world.TotalHeight() != 0 {
		t.Fatal("resize must start from an empty world")
	}
	if b := world.TerrainImage().Bounds(); b.Dx() != 300 || b.Dy() != 150 {
		t.Fatalf("terrain not resized: %v", b)
	}
	if world.Size() != (core.Size{W: 300, H: 150}) {
		t.Fatalf("unexpected size %+v", world.Size())
	}

	world.Resize(20, 20)
	if world.Columns() != minColumns {
		t.Fatalf("expected the column floor of %d, got %d", minColumns, world.Columns())
	}
	world.SpawnBurst(19, 0)
	for i := 0; i < 200; i++ {
		world.Step()
	}
}

func TestResetDeterministic(t *testing.T) {
	run := func(world *World, seed int64) []float64 {
		world.Reset(seed)
		for tick := 0; tick < 240; tick++ {
			if tick < 120 {
				world.SpawnBurst(90, 30)
			}
			world.Step()
		}
		return append([]float64(nil), world.Heights()...)
	}

	world := NewWithConfig(testConfig(180, 160))
	first := run(world, 0)
	second := run(world, 0)
	if !slices.Equal(first, second) {
		t.Fatal("Reset with config seed not deterministic")
	}

	seeded := run(world, 777)
	if !slices.Equal(seeded, run(world, 777)) {
		t.Fatal("Reset with explicit seed not deterministic")
	}
	if slices.Equal(first, seeded) {
		t.Fatal("different seeds should produce different terrain")
	}
}

func TestRegisteredPresets(t *testing.T) {
	for _, name := range []string{"dune", "dune-fine"} {
		factory, ok := core.Sims()[name]
		if !ok {
			t.Fatalf("sim %q not registered", name)
		}
		sim := factory(map[string]string{"w": "90", "h": "60"})
		if sim.Size() != (core.Size{W: 90, H: 60}) {
			t.Fatalf("%s: size override ignored: %+v", name, sim.Size())
		}
		if _, ok := sim.(core.Spawner); !ok {
			t.Fatalf("%s: expected spawn support", name)
		}
	}
	fine := core.Sims()["dune-fine"](nil).(*World)
	if fine.cfg.Params.LargeChance != 0 {
		t.Fatalf("dune-fine should not spawn large grains, got chance %f", fine.cfg.Params.LargeChance)
	}
}
