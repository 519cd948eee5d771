/*
Package deco
File: tissue.go
Description:
    The tissue compartment model. Tracks inert gas loading per compartment
    for nitrogen and helium, advances it through depth/time segments with
    the Schreiner equation (linear ambient pressure change within a
    segment), and derives the Bühlmann ceiling with gradient factor
    conservatism.

    State only moves forward in simulated time. Candidate exploration is
    done on Clone()d copies, never by rewinding.
*/

package deco

import (
	"fmt"
	"math"
)

const ln2 = math.Ln2

// compartment holds the current inert gas loading of one tissue
// compartment, in bar.
type compartment struct {
	pN2 float64
	pHe float64
}

// Segment is a slice of dive time handed to the tissue model: a duration
// under a linearly changing ambient pressure, breathing one mixture.
type Segment struct {
	Duration      float64    // minutes
	StartPressure float64    // bar
	EndPressure   float64    // bar
	Mix           GasMixture
}

// TissueModel is the set of compartments driven through a dive. It owns
// its compartment table snapshot so a config reload cannot change a
// calculation in flight.
type TissueModel struct {
	specs        []CompartmentSpec
	compartments []compartment
}

// NewTissueModel builds a model equilibrated with surface air: nitrogen
// at the inspired surface pressure, no helium.
func NewTissueModel(cfg ModelConfig) *TissueModel {
	m := &TissueModel{
		specs:        append([]CompartmentSpec(nil), cfg.Compartments...),
		compartments: make([]compartment, len(cfg.Compartments)),
	}
	surfaceN2 := AirFN2 * (SurfacePressure - WaterVapourPressure)
	for i := range m.compartments {
		m.compartments[i].pN2 = surfaceN2
	}
	return m
}

// Clone returns an independent value copy of the model. The ascent
// planner simulates candidates on clones and commits only the chosen
// path.
func (m *TissueModel) Clone() *TissueModel {
	return &TissueModel{
		specs:        m.specs,
		compartments: append([]compartment(nil), m.compartments...),
	}
}

// Advance integrates one segment into every compartment. Compartments are
// always updated in index order so results are bit-for-bit reproducible.
func (m *TissueModel) Advance(seg Segment) error {
	if seg.Duration <= 0 || math.IsNaN(seg.Duration) {
		return fmt.Errorf("%w: segment duration %.3f", ErrInvalidStep, seg.Duration)
	}
	if seg.StartPressure <= 0 || seg.EndPressure <= 0 {
		return fmt.Errorf("%w: non-physical ambient pressure", ErrInvalidStep)
	}
	if math.Abs(seg.Mix.O2+seg.Mix.N2+seg.Mix.He-1.0) > fractionTolerance {
		return fmt.Errorf("%w: segment mixture sums to %.7f", ErrInvalidGasFraction,
			seg.Mix.O2+seg.Mix.N2+seg.Mix.He)
	}

	// Rate of ambient pressure change over the segment, bar/min.
	rate := (seg.EndPressure - seg.StartPressure) / seg.Duration

	for i := range m.compartments {
		spec := m.specs[i]
		c := &m.compartments[i]
		c.pN2 = schreiner(c.pN2, seg.Mix.N2, seg.StartPressure, rate, seg.Duration, spec.HalfTimeN2)
		c.pHe = schreiner(c.pHe, seg.Mix.He, seg.StartPressure, rate, seg.Duration, spec.HalfTimeHe)
	}
	return nil
}

// schreiner computes the compartment loading after breathing a gas
// fraction for t minutes while ambient pressure ramps linearly from
// startP at rate bar/min. Reduces to the plain Haldane exponential when
// rate is zero.
func schreiner(p0, fraction, startP, rate, t, halfTime float64) float64 {
	k := ln2 / halfTime
	inspired0 := fraction * (startP - WaterVapourPressure)
	if inspired0 < 0 {
		inspired0 = 0
	}
	r := fraction * rate
	return inspired0 + r*(t-1/k) - (inspired0-p0-r/k)*math.Exp(-k*t)
}

// CeilingPressure returns the shallowest tolerable ambient pressure in
// bar under the given gradient factor (a fraction in (0, 1]). Each
// compartment combines its nitrogen and helium loads with
// loading-weighted a/b coefficients; the deepest (most restrictive)
// compartment wins.
func (m *TissueModel) CeilingPressure(gf float64) float64 {
	ceiling := 0.0
	for i := range m.compartments {
		spec := m.specs[i]
		c := m.compartments[i]

		total := c.pN2 + c.pHe
		if total <= 0 {
			continue
		}
		a := (spec.AN2*c.pN2 + spec.AHe*c.pHe) / total
		b := (spec.BN2*c.pN2 + spec.BHe*c.pHe) / total

		tolerated := (total - a*gf) / (gf/b + 1.0 - gf)
		if tolerated > ceiling {
			ceiling = tolerated
		}
	}
	return ceiling
}

// CeilingDepth is CeilingPressure converted to meters. Zero means the
// diver may surface.
func (m *TissueModel) CeilingDepth(gf float64) float64 {
	return PressureToDepth(m.CeilingPressure(gf))
}

// Loading returns the current total inert gas pressure of a compartment,
// in bar. Used for reporting and tests.
func (m *TissueModel) Loading(index int) float64 {
	c := m.compartments[index]
	return c.pN2 + c.pHe
}

// Compartments reports the size of the compartment table.
func (m *TissueModel) Compartments() int {
	return len(m.compartments)
}
