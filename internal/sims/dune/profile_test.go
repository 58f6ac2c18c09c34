package dune

import (
	"context"
	"math"
	"testing"
)

func smallProfileConfig() Config {
	cfg := testConfig(150, 120)
	cfg.Params.SpawnJitterX = 10
	return cfg
}

func TestPourProfileConservesMass(t *testing.T) {
	res := PourProfile(smallProfileConfig(), 300)
	if res.Steps != 300 {
		t.Fatalf("expected 300 steps, got %d", res.Steps)
	}
	if res.Settled == 0 {
		t.Fatal("expected grains to settle")
	}
	if res.MassError > 1e-6 {
		t.Fatalf("mass error %.9f", res.MassError)
	}
	if res.Spread == 0 || res.Peak <= 0 {
		t.Fatalf("expected a pile, got %v", res)
	}
	if math.IsInf(res.Score(), 0) {
		t.Fatal("score of a settled pile must be finite")
	}
}

func TestPourProfileDeterministic(t *testing.T) {
	a := PourProfile(smallProfileConfig(), 200)
	b := PourProfile(smallProfileConfig(), 200)
	if a != b {
		t.Fatalf("pour not deterministic:\n%v\n%v", a, b)
	}
	if empty := PourProfile(smallProfileConfig(), 0); empty.Settled != 0 || !math.IsInf(empty.Score(), 1) {
		t.Fatalf("an empty run should score worst, got %v", empty)
	}
}

func TestParameterSweepNeverWorsensScore(t *testing.T) {
	base := smallProfileConfig()
	params, res, records, err := ParameterSweep(context.Background(), base, 160, 1, 4)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(records) == 0 || records[0].Parameter != "baseline" {
		t.Fatalf("expected the trace to start with the baseline, got %+v", records)
	}
	baseline := records[0].Result
	if res.Score() > baseline.Score() {
		t.Fatalf("sweep worsened the score: %.3f > %.3f", res.Score(), baseline.Score())
	}
	for i := 1; i < len(records); i++ {
		if records[i].Result.Score() >= records[i-1].Result.Score() {
			t.Fatalf("record %d is not an improvement", i)
		}
	}

	cfg := base
	cfg.Params = params
	if again := PourProfile(cfg, 160); again != res {
		t.Fatalf("best parameters do not reproduce their profile:\n%v\n%v", again, res)
	}
}

func TestParameterSweepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := ParameterSweep(ctx, smallProfileConfig(), 60, 1, 2)
	if err == nil {
		t.Fatal("expected a cancelled sweep to fail")
	}
}
