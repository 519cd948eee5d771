/*
Package deco
File: physics.go
Description:
    Pressure/depth conversions and the fixed physical constants the engine
    runs on. Everything here is read-only; tunable model parameters live in
    config.go instead.
*/

package deco

import "math"

const (
	// SurfacePressure is the ambient pressure at 0 m, in bar.
	SurfacePressure = 1.0

	// BarPerMeter is the hydrostatic pressure gradient of seawater.
	// 10 m of water column adds 1 bar.
	BarPerMeter = 0.1

	// WaterVapourPressure is the alveolar water vapour correction, in bar.
	// Subtracted from ambient pressure before computing inspired gas loads.
	WaterVapourPressure = 0.0627

	// AirFO2 and AirFN2 are the standard composition of breathing air.
	AirFO2 = 0.21
	AirFN2 = 0.79
)

// DepthToPressure converts a depth in meters to ambient pressure in bar.
func DepthToPressure(depth float64) float64 {
	return SurfacePressure + depth*BarPerMeter
}

// PressureToDepth converts an ambient pressure in bar to a depth in meters.
// Pressures at or below surface pressure map to 0.
func PressureToDepth(pressure float64) float64 {
	if pressure <= SurfacePressure {
		return 0
	}
	return (pressure - SurfacePressure) / BarPerMeter
}

// roundUpToIncrement rounds a depth up (deeper) to the next multiple of
// the given increment. Ties resolve deeper by construction.
func roundUpToIncrement(depth, increment float64) float64 {
	if depth <= 0 {
		return 0
	}
	return math.Ceil(depth/increment-1e-9) * increment
}
