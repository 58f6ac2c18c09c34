package dune

import (
	"fmt"
	"strconv"

	"sand-dune/internal/core"
)

// Parameters reports every tunable grouped for presentation.
func (w *World) Parameters() core.ParameterSnapshot {
	groups := []core.ParameterGroup{{
		Name: "World",
		Params: []core.Parameter{
			intParam("w", "Width", w.w),
			intParam("h", "Height", w.h),
			intParam("cols", "Columns", w.cols),
			int64Param("seed", "Seed", w.cfg.Seed),
			{
				Key:   "base_color",
				Label: "Base colour",
				Value: fmt.Sprintf("#%02x%02x%02x", w.baseColor.R, w.baseColor.G, w.baseColor.B),
			},
		},
	}}

	index := map[string]int{}
	for _, spec := range paramSpecs {
		gi, ok := index[spec.group]
		if !ok {
			gi = len(groups)
			index[spec.group] = gi
			groups = append(groups, core.ParameterGroup{Name: spec.group})
		}
		groups[gi].Params = append(groups[gi].Params, core.Parameter{
			Key:   spec.key,
			Label: spec.label,
			Type:  spec.paramType(),
			Value: spec.format(&w.cfg.Params),
		})
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the tunables adjustable from the HUD.
func (w *World) ParameterControls() []core.ParameterControl {
	var controls []core.ParameterControl
	for _, spec := range paramSpecs {
		if !spec.hud {
			continue
		}
		controls = append(controls, core.ParameterControl{
			Key:    spec.key,
			Label:  spec.label,
			Type:   spec.paramType(),
			Step:   spec.step,
			Min:    spec.min,
			Max:    spec.max,
			HasMin: spec.hasMin,
			HasMax: spec.hasMax,
		})
	}
	return controls
}

// SetIntParameter updates an integer or millisecond tunable, clamping it to
// its bounds.
func (w *World) SetIntParameter(key string, value int) bool {
	spec, ok := lookupSpec(key)
	if !ok || spec.kind == kindFloat {
		return false
	}
	spec.set(&w.cfg.Params, float64(value))
	w.cfg.Params = w.cfg.Params.normalized()
	return true
}

// SetFloatParameter updates a floating point tunable, clamping it to its
// bounds.
func (w *World) SetFloatParameter(key string, value float64) bool {
	spec, ok := lookupSpec(key)
	if !ok || spec.kind != kindFloat {
		return false
	}
	if key == "column_width" {
		// Column geometry is fixed until the next resize or reset.
		return false
	}
	spec.set(&w.cfg.Params, value)
	w.cfg.Params = w.cfg.Params.normalized()
	return true
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}
