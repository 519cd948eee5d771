/*
Package deco
File: errors.go
Description: Error taxonomy of the planning engine. Construction-time
problems are sentinel errors; NoSafeGasError carries the state at which
the ascent had to abort. Reserve usage is a warning record, not an error.
*/

package deco

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGasFraction indicates mixture fractions that do not sum to 1
	// within tolerance, or fall outside [0, 1].
	ErrInvalidGasFraction = errors.New("deco: gas fractions must sum to 1")

	// ErrInvalidStep indicates a dive step or segment with a non-positive
	// duration, a negative depth, or a non-physical ambient pressure.
	ErrInvalidStep = errors.New("deco: invalid dive step")

	// ErrInvalidCylinder indicates a cylinder with non-positive volume or
	// pressures outside the working range.
	ErrInvalidCylinder = errors.New("deco: invalid cylinder")

	// ErrNoCylinders indicates a plan constructed without any gas supply.
	ErrNoCylinders = errors.New("deco: plan requires at least one cylinder")

	// ErrInvalidGradientFactors indicates gradient factors outside (0, 100].
	ErrInvalidGradientFactors = errors.New("deco: gradient factors must be in (0, 100]")
)

// NoSafeGasError is returned when no available cylinder can supply the
// diver within the configured ppO2 window at a required stop depth.
type NoSafeGasError struct {
	Depth   float64 // stop depth that could not be served, meters
	Ceiling float64 // tissue ceiling depth at the time of failure, meters
	MaxPpO2 float64 // the limit that every candidate exceeded, bar
}

func (e *NoSafeGasError) Error() string {
	return fmt.Sprintf("deco: no safe gas for stop at %.1fm (ceiling %.1fm, ppO2 limit %.2f bar)",
		e.Depth, e.Ceiling, e.MaxPpO2)
}

// ReserveWarning records a consumption event that drew on a cylinder
// already below its reserve pressure. Warnings accumulate on the plan
// result; they never abort a calculation.
type ReserveWarning struct {
	Cylinder string  `json:"cylinder"` // mixture name of the cylinder drawn on
	Depth    float64 `json:"depth"`    // depth at which the draw happened, meters
	Pressure float64 `json:"pressure"` // cylinder pressure after the draw, bar
}

func (w ReserveWarning) String() string {
	return fmt.Sprintf("reserve in use: %s at %.0fm (%.0f bar left)", w.Cylinder, w.Depth, w.Pressure)
}
