/*
Package deco
File: models.go
Description:
    Defines the data structures of the planning engine: gas mixtures,
    cylinders, dive steps, gradient factors and the computed profile.
    These map directly to the JSON API surface.
*/

package deco

import (
	"fmt"
	"math"
)

// fractionTolerance is how far mixture fractions may drift from summing
// to exactly 1 before construction fails.
const fractionTolerance = 1e-6

// GasMixture is an immutable breathing gas composition. Fractions are
// fixed at construction and never renegotiated.
type GasMixture struct {
	O2 float64 `json:"o2"` // oxygen fraction, [0, 1]
	N2 float64 `json:"n2"` // nitrogen fraction, [0, 1]
	He float64 `json:"he"` // helium fraction, [0, 1]
}

// NewGasMixture builds a two-component mixture (nitrox). The helium
// fraction is zero.
func NewGasMixture(o2, n2 float64) (GasMixture, error) {
	return NewTrimix(o2, n2, 0)
}

// NewTrimix builds a three-component mixture. Fractions must each lie in
// [0, 1] and sum to 1 within tolerance, otherwise ErrInvalidGasFraction.
func NewTrimix(o2, n2, he float64) (GasMixture, error) {
	for _, f := range []float64{o2, n2, he} {
		if f < 0 || f > 1 || math.IsNaN(f) {
			return GasMixture{}, fmt.Errorf("%w: fraction %v out of range", ErrInvalidGasFraction, f)
		}
	}
	if math.Abs(o2+n2+he-1.0) > fractionTolerance {
		return GasMixture{}, fmt.Errorf("%w: got %.7f", ErrInvalidGasFraction, o2+n2+he)
	}
	return GasMixture{O2: o2, N2: n2, He: he}, nil
}

// Air is the default surface breathing gas.
func Air() GasMixture {
	return GasMixture{O2: AirFO2, N2: AirFN2}
}

// PpO2 is the oxygen partial pressure of this mixture at the given
// ambient pressure, in bar.
func (g GasMixture) PpO2(ambient float64) float64 {
	return g.O2 * ambient
}

// InspiredPressure is the water-vapour-corrected partial pressure of one
// inert component at the given ambient pressure. Used for tissue loading.
func (g GasMixture) InspiredPressure(fraction, ambient float64) float64 {
	p := fraction * (ambient - WaterVapourPressure)
	if p < 0 {
		return 0
	}
	return p
}

// MaxOperatingDepth is the deepest depth at which this mixture stays at
// or under the given ppO2 limit, in meters.
func (g GasMixture) MaxOperatingDepth(maxPpO2 float64) float64 {
	if g.O2 <= 0 {
		return math.Inf(1)
	}
	return PressureToDepth(maxPpO2 / g.O2)
}

// Name renders the conventional mixture label: "air", "oxygen",
// "nx50" for nitrox, "tx18/45" for trimix.
func (g GasMixture) Name() string {
	o2 := int(math.Round(g.O2 * 100))
	he := int(math.Round(g.He * 100))
	switch {
	case he > 0:
		return fmt.Sprintf("tx%d/%d", o2, he)
	case o2 == 100:
		return "oxygen"
	case o2 == 21:
		return "air"
	default:
		return fmt.Sprintf("nx%d", o2)
	}
}

// GasCylinder is a mutable gas supply wrapping an immutable mixture.
// Only consumption events mutate it; a cylinder is never removed from a
// plan once added.
type GasCylinder struct {
	Volume          float64    `json:"volume"`           // water capacity, liters
	WorkingPressure float64    `json:"working_pressure"` // bar
	ReservePressure float64    `json:"reserve_pressure"` // bar held back as safety margin
	Mix             GasMixture `json:"mix"`
	CurrentPressure float64    `json:"current_pressure"` // bar, starts at WorkingPressure

	inReserve bool
}

// NewGasCylinder builds a full cylinder. The reserve must fit inside the
// working pressure range.
func NewGasCylinder(volume, workingPressure float64, mix GasMixture, reservePressure float64) (*GasCylinder, error) {
	if volume <= 0 || workingPressure <= 0 {
		return nil, fmt.Errorf("%w: volume and working pressure must be positive", ErrInvalidCylinder)
	}
	if reservePressure < 0 || reservePressure > workingPressure {
		return nil, fmt.Errorf("%w: reserve pressure %.0f outside [0, %.0f]", ErrInvalidCylinder, reservePressure, workingPressure)
	}
	return &GasCylinder{
		Volume:          volume,
		WorkingPressure: workingPressure,
		ReservePressure: reservePressure,
		Mix:             mix,
		CurrentPressure: workingPressure,
	}, nil
}

// InReserve reports whether consumption has already driven the cylinder
// below its reserve pressure.
func (c *GasCylinder) InReserve() bool {
	return c.inReserve
}

// UsableVolume is the surface-equivalent gas volume still available above
// the reserve threshold, in liters.
func (c *GasCylinder) UsableVolume() float64 {
	usable := c.CurrentPressure - c.ReservePressure
	if usable < 0 {
		return 0
	}
	return usable * c.Volume
}

// Consume draws a surface-equivalent volume (liters) from the cylinder
// and returns a ReserveWarning when the draw started inside the reserve.
// Crossing into the reserve flags the cylinder; the crossing draw itself
// does not warn, every later one does.
func (c *GasCylinder) Consume(litres, depth float64) *ReserveWarning {
	wasInReserve := c.inReserve

	c.CurrentPressure -= litres / c.Volume
	if c.CurrentPressure < 0 {
		c.CurrentPressure = 0
	}
	if c.CurrentPressure < c.ReservePressure {
		c.inReserve = true
	}

	if wasInReserve {
		return &ReserveWarning{Cylinder: c.Mix.Name(), Depth: depth, Pressure: c.CurrentPressure}
	}
	return nil
}

// StepKind classifies a dive step by its depth change.
type StepKind string

const (
	StepDescent  StepKind = "descent"
	StepAscent   StepKind = "ascent"
	StepConstant StepKind = "const"
)

// DiveStep is one leg of a dive: a duration spent moving linearly from
// StartDepth to EndDepth while breathing from Cylinder. Immutable once
// added to a plan.
type DiveStep struct {
	Duration   float64 // minutes
	StartDepth float64 // meters
	EndDepth   float64 // meters
	Cylinder   *GasCylinder
}

// NewDiveStep validates eagerly: non-positive durations and negative
// depths are rejected at construction, never discovered mid-simulation.
func NewDiveStep(duration, startDepth, endDepth float64, cyl *GasCylinder) (DiveStep, error) {
	if duration <= 0 || math.IsNaN(duration) {
		return DiveStep{}, fmt.Errorf("%w: duration %.2f must be positive", ErrInvalidStep, duration)
	}
	if startDepth < 0 || endDepth < 0 || math.IsNaN(startDepth) || math.IsNaN(endDepth) {
		return DiveStep{}, fmt.Errorf("%w: depths must be non-negative", ErrInvalidStep)
	}
	if cyl == nil {
		return DiveStep{}, fmt.Errorf("%w: step has no cylinder", ErrInvalidStep)
	}
	return DiveStep{Duration: duration, StartDepth: startDepth, EndDepth: endDepth, Cylinder: cyl}, nil
}

// Kind reports whether the step descends, ascends or holds depth.
func (s DiveStep) Kind() StepKind {
	switch {
	case s.EndDepth > s.StartDepth:
		return StepDescent
	case s.EndDepth < s.StartDepth:
		return StepAscent
	default:
		return StepConstant
	}
}

// AmbientAt returns the ambient pressure at a sample time within the
// step, interpolating the linear depth change.
func (s DiveStep) AmbientAt(sampleTime float64) float64 {
	depth := s.StartDepth + (sampleTime/s.Duration)*(s.EndDepth-s.StartDepth)
	return DepthToPressure(depth)
}

// GradientFactors hold the (low, high) conservatism pair, in percent.
// GF low applies at the first stop, GF high at the surface.
type GradientFactors struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Validate rejects factors outside (0, 100].
func (gf GradientFactors) Validate() error {
	for _, f := range []float64{gf.Low, gf.High} {
		if f <= 0 || f > 100 {
			return fmt.Errorf("%w: got (%.0f, %.0f)", ErrInvalidGradientFactors, gf.Low, gf.High)
		}
	}
	return nil
}

// at interpolates the gradient factor (as a fraction) for a depth, given
// the first stop depth anchoring GF low. Before the first stop is known,
// callers pass firstStop <= 0 and get GF low.
func (gf GradientFactors) at(depth, firstStop float64) float64 {
	low, high := gf.Low/100, gf.High/100
	if firstStop <= 0 {
		return low
	}
	if depth >= firstStop {
		return low
	}
	if depth <= 0 {
		return high
	}
	return high + (low-high)*depth/firstStop
}

// ProfilePoint is one row of the final computed profile.
type ProfilePoint struct {
	Kind        StepKind `json:"kind"`
	Depth       float64  `json:"depth"`        // end depth of the leg, meters
	Duration    float64  `json:"duration"`     // minutes
	Runtime     float64  `json:"runtime"`      // cumulative minutes
	Gas         string   `json:"gas"`          // mixture name
	Ceiling     float64  `json:"ceiling"`      // tissue ceiling depth after the leg, meters
	GasPressure float64  `json:"gas_pressure"` // cylinder pressure after the leg, bar
	Planned     bool     `json:"planned"`      // true for diver-planned legs, false for computed ascent
}

// Profile is the complete, internally consistent result of a calculated
// dive: ordered points plus the reserve warnings accumulated on the way.
type Profile struct {
	Model           string           `json:"model"`
	GradientFactors GradientFactors  `json:"gradient_factors"`
	Points          []ProfilePoint   `json:"points"`
	Warnings        []ReserveWarning `json:"warnings"`
	Runtime         float64          `json:"runtime"`   // total minutes
	MaxDepth        float64          `json:"max_depth"` // meters
}
