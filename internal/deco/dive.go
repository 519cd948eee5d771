/*
Package deco
File: dive.go
Description:
    DivePlan orchestration. Owns the planned steps, the cylinders, the
    gradient factors and the tissue model; replays the planned profile,
    invokes the ascent planner, and assembles the final merged profile.
*/

package deco

import (
	"fmt"
)

// DivePlan is a single dive calculation. It owns every entity it touches
// for its lifetime; nothing is shared across plans.
type DivePlan struct {
	cfg       ModelConfig
	gf        GradientFactors
	steps     []DiveStep
	cylinders []*GasCylinder
	model     *TissueModel

	ascent   []DiveStep
	points   []ProfilePoint
	warnings []ReserveWarning
	runtime  float64
	maxDepth float64

	stepsDone  bool
	ascentDone bool
}

// NewDivePlan builds a plan over validated steps and at least one
// cylinder. The model configuration is snapshotted here, so a concurrent
// config reload never affects a plan in flight.
func NewDivePlan(steps []DiveStep, cylinders []*GasCylinder, gf GradientFactors) (*DivePlan, error) {
	if len(cylinders) == 0 {
		return nil, ErrNoCylinders
	}
	if err := gf.Validate(); err != nil {
		return nil, err
	}

	cfg := ActiveModelConfig()
	return &DivePlan{
		cfg:       cfg,
		gf:        gf,
		steps:     append([]DiveStep(nil), steps...),
		cylinders: append([]*GasCylinder(nil), cylinders...),
		model:     NewTissueModel(cfg),
	}, nil
}

// AddOptimalGasCylinder constructs the richest safe mixture for the given
// depth and target ppO2, wraps it in a fresh cylinder and adds it to the
// available set. It is seen by later ascent planning but never applied
// retroactively to steps already calculated.
func (p *DivePlan) AddOptimalGasCylinder(volume, workingPressure, endDepth, targetPpO2 float64) (*GasCylinder, error) {
	mix, err := OptimalMixture(endDepth, targetPpO2, DiluentNitrogen)
	if err != nil {
		return nil, err
	}
	cyl, err := NewGasCylinder(volume, workingPressure, mix, 0)
	if err != nil {
		return nil, err
	}
	p.cylinders = append(p.cylinders, cyl)
	return cyl, nil
}

// Cylinders returns the plan's cylinder set, including any optimal
// cylinders added after construction.
func (p *DivePlan) Cylinders() []*GasCylinder {
	return p.cylinders
}

// CalculateSteps replays the planned steps through the tissue model in
// order, consuming gas from each step's cylinder. A plan that starts
// below the surface gets a descent leg from 0 m prepended, its time taken
// out of the first step where possible.
func (p *DivePlan) CalculateSteps() error {
	if p.stepsDone {
		return nil
	}

	if len(p.steps) > 0 && p.steps[0].StartDepth != 0 {
		descent := p.steps[0].StartDepth / p.cfg.DescentRate
		lead, err := NewDiveStep(descent, 0, p.steps[0].StartDepth, p.steps[0].Cylinder)
		if err != nil {
			return err
		}
		if p.steps[0].Duration > descent {
			p.steps[0].Duration -= descent
		}
		p.steps = append([]DiveStep{lead}, p.steps...)
	}

	for _, step := range p.steps {
		if err := p.traverse(step, true, p.cfg.SACBottom); err != nil {
			return err
		}
	}
	p.stepsDone = true
	return nil
}

// CalculateAscent runs the ascent planner from the post-bottom tissue
// state and appends the resulting stops to the profile. A NoSafeGasError
// aborts the calculation and surfaces the depth at which no gas
// qualified.
func (p *DivePlan) CalculateAscent() error {
	if p.ascentDone {
		return nil
	}
	if err := p.CalculateSteps(); err != nil {
		return err
	}

	fromDepth := 0.0
	if n := len(p.steps); n > 0 {
		fromDepth = p.steps[n-1].EndDepth
	}

	planner := NewAscentPlanner(p.cfg, p.gf, p.cylinders)
	legs, warnings, err := planner.Plan(p.model, fromDepth)
	if err != nil {
		return err
	}
	p.warnings = append(p.warnings, warnings...)

	for _, leg := range legs {
		p.ascent = append(p.ascent, leg.Step)
		p.runtime += leg.Step.Duration
		p.points = append(p.points, ProfilePoint{
			Kind:        leg.Step.Kind(),
			Depth:       leg.Step.EndDepth,
			Duration:    leg.Step.Duration,
			Runtime:     p.runtime,
			Gas:         leg.Step.Cylinder.Mix.Name(),
			Ceiling:     leg.Ceiling,
			GasPressure: leg.Pressure,
			Planned:     false,
		})
	}

	p.ascentDone = true
	return nil
}

// traverse advances one planned leg: tissue update, gas consumption,
// profile bookkeeping.
func (p *DivePlan) traverse(step DiveStep, planned bool, sac float64) error {
	seg := Segment{
		Duration:      step.Duration,
		StartPressure: DepthToPressure(step.StartDepth),
		EndPressure:   DepthToPressure(step.EndDepth),
		Mix:           step.Cylinder.Mix,
	}
	if err := p.model.Advance(seg); err != nil {
		return fmt.Errorf("step to %.1fm: %w", step.EndDepth, err)
	}
	if w := consumeSegment(step.Cylinder, step.StartDepth, step.EndDepth, step.Duration, sac); w != nil {
		p.warnings = append(p.warnings, *w)
	}
	p.recordPoint(step, p.model, planned)
	return nil
}

func (p *DivePlan) recordPoint(step DiveStep, model *TissueModel, planned bool) {
	p.runtime += step.Duration
	if step.EndDepth > p.maxDepth {
		p.maxDepth = step.EndDepth
	}
	if step.StartDepth > p.maxDepth {
		p.maxDepth = step.StartDepth
	}
	p.points = append(p.points, ProfilePoint{
		Kind:        step.Kind(),
		Depth:       step.EndDepth,
		Duration:    step.Duration,
		Runtime:     p.runtime,
		Gas:         step.Cylinder.Mix.Name(),
		Ceiling:     model.CeilingDepth(p.gf.Low / 100),
		GasPressure: step.Cylinder.CurrentPressure,
		Planned:     planned,
	})
}

// Profile assembles the final result: planned legs followed by computed
// ascent legs, with the warnings gathered along the way.
func (p *DivePlan) Profile() Profile {
	return Profile{
		Model:           p.cfg.Name,
		GradientFactors: p.gf,
		Points:          append([]ProfilePoint(nil), p.points...),
		Warnings:        append([]ReserveWarning(nil), p.warnings...),
		Runtime:         p.runtime,
		MaxDepth:        p.maxDepth,
	}
}
