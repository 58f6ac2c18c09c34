package dune

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/sync/errgroup"

	pkgcore "sand-dune/pkg/core"
)

// ProfileResult captures the shape of the terrain after a deterministic pour.
type ProfileResult struct {
	// Steps is the number of ticks simulated.
	Steps int
	// Settled counts particles that became grains.
	Settled int
	// Peak is the tallest column height.
	Peak float64
	// MaxSlope is the largest height difference between adjacent columns.
	MaxSlope float64
	// Roughness is the mean absolute height difference between adjacent
	// columns.
	Roughness float64
	// Spread is the number of columns with any height.
	Spread int
	// MassError is the absolute difference between the summed column heights
	// and the summed diameters of every settled grain. It should be zero up to
	// rounding.
	MassError float64
}

// Score ranks profiles for tuning; lower is smoother. A run that settled
// nothing is worst.
func (r ProfileResult) Score() float64 {
	if r.Settled == 0 {
		return math.Inf(1)
	}
	return r.MaxSlope + 4*r.Roughness
}

func (r ProfileResult) String() string {
	return fmt.Sprintf("settled=%d peak=%.1f maxSlope=%.2f roughness=%.3f spread=%d massErr=%.2g",
		r.Settled, r.Peak, r.MaxSlope, r.Roughness, r.Spread, r.MassError)
}

// PourProfile resets a world built from cfg, pours particles at the centre of
// the viewport for the first half of the run and lets the pile settle for the
// rest.
func PourProfile(cfg Config, steps int) ProfileResult {
	if steps <= 0 {
		return ProfileResult{}
	}
	world := NewWithRNG(cfg, pkgcore.NewRNG(cfg.Seed))
	world.Reset(0)

	cx := float64(world.w) / 2
	cy := float64(world.h) / 8
	pour := steps / 2
	for step := 0; step < steps; step++ {
		if step < pour {
			world.SpawnBurst(cx, cy)
		}
		world.Step()
	}
	return world.measureProfile()
}

func (w *World) measureProfile() ProfileResult {
	res := ProfileResult{Steps: w.ticks, Settled: w.settled}
	diameters := 0.0
	for i, h := range w.heights {
		res.Peak = math.Max(res.Peak, h)
		if h > 0 {
			res.Spread++
		}
		for _, g := range w.grains[i] {
			diameters += g.Diameter()
		}
		if i == 0 {
			continue
		}
		d := math.Abs(h - w.heights[i-1])
		res.MaxSlope = math.Max(res.MaxSlope, d)
		res.Roughness += d
	}
	if w.cols > 1 {
		res.Roughness /= float64(w.cols - 1)
	}
	res.MassError = math.Abs(w.TotalHeight() - diameters)
	return res
}

// SweepRecord documents a single improvement found while exploring the
// tuning space.
type SweepRecord struct {
	Pass      int
	Parameter string
	Value     string
	Result    ProfileResult
	Params    Params
}

type sweepAxis struct {
	name   string
	values []float64
	// format renders a value for the trace; defaults to %.3f.
	format func(float64) string
}

var sweepAxes = []sweepAxis{
	{name: "height_bias_threshold", values: []float64{3, 4.5, 6, 8, 10}},
	{name: "height_reject_max_prob", values: []float64{0.5, 0.7, 0.9, 0.98}},
	{name: "critical_slope", values: []float64{0.5, 1, 1.5, 2.5}},
	{name: "fallback_transfer", values: []float64{0.3, 0.6, 1, 1.5}},
	{name: "relax_passes", values: []float64{1, 2, 3, 5, 8}, format: func(v float64) string { return strconv.Itoa(int(v)) }},
	{name: "stability_threshold", values: []float64{0.5, 0.72, 0.9}},
}

// ParameterSweep runs a coordinate-descent search over the settling and
// relaxation tunables and returns the smoothest parameter set found along
// with its profile and the improvement trace. Candidates of one axis are
// evaluated concurrently on up to workers goroutines; each candidate owns its
// own world.
func ParameterSweep(ctx context.Context, base Config, steps, passes, workers int) (Params, ProfileResult, []SweepRecord, error) {
	if steps <= 0 {
		steps = 600
	}
	if passes <= 0 {
		passes = 1
	}
	if workers <= 0 {
		workers = 1
	}

	current := base.Params
	currentResult := PourProfile(base, steps)
	records := []SweepRecord{{Parameter: "baseline", Result: currentResult, Params: current}}

	for pass := 1; pass <= passes; pass++ {
		improved := false
		for _, axis := range sweepAxes {
			best, bestResult, rec, err := evaluateAxis(ctx, base, current, currentResult, axis, steps, workers, pass)
			if err != nil {
				return current, currentResult, records, err
			}
			if rec != nil {
				current, currentResult = best, bestResult
				records = append(records, *rec)
				improved = true
			}
		}
		logger.Debugf("sweep pass %d: score %.3f", pass, currentResult.Score())
		if !improved {
			break
		}
	}
	return current, currentResult, records, nil
}

func evaluateAxis(ctx context.Context, base Config, params Params, baseline ProfileResult, axis sweepAxis, steps, workers, pass int) (Params, ProfileResult, *SweepRecord, error) {
	spec, ok := lookupSpec(axis.name)
	if !ok {
		return params, baseline, nil, fmt.Errorf("unknown sweep parameter %q", axis.name)
	}

	type candidate struct {
		params Params
		result ProfileResult
		valid  bool
	}
	candidates := make([]candidate, len(axis.values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, value := range axis.values {
		if almostEqual(spec.value(&params), spec.clamp(value)) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cand := params
			spec.set(&cand, value)
			cfg := base
			cfg.Params = cand.normalized()
			candidates[i] = candidate{params: cfg.Params, result: PourProfile(cfg, steps), valid: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return params, baseline, nil, err
	}

	bestParams, bestResult := params, baseline
	var rec *SweepRecord
	for i, cand := range candidates {
		if !cand.valid || cand.result.Score() >= bestResult.Score() {
			continue
		}
		bestParams, bestResult = cand.params, cand.result
		value := fmt.Sprintf("%.3f", axis.values[i])
		if axis.format != nil {
			value = axis.format(axis.values[i])
		}
		rec = &SweepRecord{Pass: pass, Parameter: axis.name, Value: value, Result: cand.result, Params: cand.params}
	}
	return bestParams, bestResult, rec, nil
}

func almostEqual(a, b float64) bool {
	const eps = 1e-6
	return math.Abs(a-b) <= eps
}
