/*
Package deco
File: ascent.go
Description:
    The ascent planner: an iterative simulate-and-check loop that walks
    the diver from the bottom to the surface, holding at gradient-factor
    ceilings rounded to the configured stop granularity and switching to
    the best available gas at each leg.
*/

package deco

import (
	"fmt"
	"math"
)

// ascentIterationCap bounds the simulate-and-check loop. The ceiling is
// non-increasing once ascent begins, so hitting the cap means the inputs
// were degenerate, not that a longer search would help.
const ascentIterationCap = 100000

// AscentPlanner produces the decompression schedule from a tissue state
// and the cylinders still available.
type AscentPlanner struct {
	cfg       ModelConfig
	gf        GradientFactors
	cylinders []*GasCylinder
}

// PlannedLeg is one committed ascent leg plus the state snapshots the
// profile reports: the ceiling and the cylinder pressure right after the
// leg was traversed.
type PlannedLeg struct {
	Step     DiveStep
	Ceiling  float64 // meters
	Pressure float64 // bar left in the leg's cylinder
}

// NewAscentPlanner captures the configuration snapshot the plan runs on.
func NewAscentPlanner(cfg ModelConfig, gf GradientFactors, cylinders []*GasCylinder) *AscentPlanner {
	return &AscentPlanner{cfg: cfg, gf: gf, cylinders: cylinders}
}

// Plan advances the given tissue model from fromDepth to the surface and
// returns the ordered ascent legs. The model is mutated along the chosen
// path only; callers wanting to keep the pre-ascent state pass a Clone.
func (p *AscentPlanner) Plan(model *TissueModel, fromDepth float64) ([]PlannedLeg, []ReserveWarning, error) {
	current := fromDepth
	firstStop := 0.0

	var legs []PlannedLeg
	var warnings []ReserveWarning

	for iter := 0; ; iter++ {
		if iter >= ascentIterationCap {
			return nil, nil, fmt.Errorf("deco: ascent from %.1fm did not converge", fromDepth)
		}

		gf := p.gf.at(current, firstStop)
		ceiling := model.CeilingDepth(gf)

		stopDepth := 0.0
		if ceiling > 0 {
			stopDepth = roundUpToIncrement(ceiling, p.cfg.StopIncrement)
			if firstStop == 0 {
				firstStop = stopDepth
			}
		}

		if current <= 0 && stopDepth <= 0 {
			return legs, warnings, nil
		}

		// Never fly above the ceiling: the next depth is the deeper of
		// the rounded ceiling and one increment up from here.
		next := math.Max(stopDepth, current-p.cfg.StopIncrement)
		if next < 0 {
			next = 0
		}

		if next < current {
			// Travel leg up to the next candidate depth.
			gas := BestGasForDepth(next, p.cylinders, p.cfg.MaxPpO2Deco, p.cfg.MinPpO2)
			if gas == nil {
				return nil, nil, &NoSafeGasError{Depth: next, Ceiling: ceiling, MaxPpO2: p.cfg.MaxPpO2Deco}
			}

			duration := (current - next) / p.cfg.AscentRate
			seg := Segment{
				Duration:      duration,
				StartPressure: DepthToPressure(current),
				EndPressure:   DepthToPressure(next),
				Mix:           gas.Mix,
			}
			if err := model.Advance(seg); err != nil {
				return nil, nil, err
			}
			if w := consumeSegment(gas, current, next, duration, p.cfg.SACDeco); w != nil {
				warnings = append(warnings, *w)
			}

			legs = appendLeg(legs, PlannedLeg{
				Step: DiveStep{
					Duration:   duration,
					StartDepth: current,
					EndDepth:   next,
					Cylinder:   gas,
				},
				Ceiling:  model.CeilingDepth(p.gf.at(next, firstStop)),
				Pressure: gas.CurrentPressure,
			})
			current = next
			continue
		}

		// Pinned at a stop: hold one sample interval, then re-check.
		gas := BestGasForDepth(current, p.cylinders, p.cfg.MaxPpO2Deco, p.cfg.MinPpO2)
		if gas == nil {
			return nil, nil, &NoSafeGasError{Depth: current, Ceiling: ceiling, MaxPpO2: p.cfg.MaxPpO2Deco}
		}

		seg := Segment{
			Duration:      p.cfg.SampleInterval,
			StartPressure: DepthToPressure(current),
			EndPressure:   DepthToPressure(current),
			Mix:           gas.Mix,
		}
		if err := model.Advance(seg); err != nil {
			return nil, nil, err
		}
		if w := consumeSegment(gas, current, current, p.cfg.SampleInterval, p.cfg.SACDeco); w != nil {
			warnings = append(warnings, *w)
		}

		legs = appendLeg(legs, PlannedLeg{
			Step: DiveStep{
				Duration:   p.cfg.SampleInterval,
				StartDepth: current,
				EndDepth:   current,
				Cylinder:   gas,
			},
			Ceiling:  model.CeilingDepth(p.gf.at(current, firstStop)),
			Pressure: gas.CurrentPressure,
		})
	}
}

// appendLeg merges a new leg into the previous one when both are the same
// kind of movement on the same cylinder and join up, so a 10-minute stop
// is one step rather than ten one-minute samples. The merged leg keeps
// the latest ceiling and pressure snapshots.
func appendLeg(legs []PlannedLeg, leg PlannedLeg) []PlannedLeg {
	if n := len(legs); n > 0 {
		prev := &legs[n-1]
		if prev.Step.Cylinder == leg.Step.Cylinder &&
			prev.Step.EndDepth == leg.Step.StartDepth &&
			prev.Step.Kind() == leg.Step.Kind() {
			prev.Step.Duration += leg.Step.Duration
			prev.Step.EndDepth = leg.Step.EndDepth
			prev.Ceiling = leg.Ceiling
			prev.Pressure = leg.Pressure
			return legs
		}
	}
	return append(legs, leg)
}
