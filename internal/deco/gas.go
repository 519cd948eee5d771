/*
Package deco
File: gas.go
Description:
    Gas selection and consumption. Pure selection helpers used by the
    ascent planner and by the optimal-cylinder feature, plus the
    surface-equivalent-volume consumption bookkeeping that ties every
    traversed segment back to a cylinder pressure drop.
*/

package deco

import (
	"fmt"
	"math"
)

// BestGasForDepth picks the cylinder to breathe at a depth: ppO2 within
// [minPpO2, maxPpO2] and not already drawn into reserve. Among the
// survivors the highest O2 fraction wins (fastest off-gassing on ascent);
// ties go to the larger remaining usable volume. Returns nil when no
// cylinder qualifies.
func BestGasForDepth(depth float64, cylinders []*GasCylinder, maxPpO2, minPpO2 float64) *GasCylinder {
	ambient := DepthToPressure(depth)

	var best *GasCylinder
	for _, cyl := range cylinders {
		ppO2 := cyl.Mix.PpO2(ambient)
		if ppO2 > maxPpO2+fractionTolerance || ppO2 < minPpO2 {
			continue
		}
		if cyl.InReserve() {
			continue
		}
		if best == nil ||
			cyl.Mix.O2 > best.Mix.O2 ||
			(cyl.Mix.O2 == best.Mix.O2 && cyl.UsableVolume() > best.UsableVolume()) {
			best = cyl
		}
	}
	return best
}

// Diluent selects the inert filler for an optimal mixture.
type Diluent string

const (
	DiluentNitrogen Diluent = "nitrogen"
	DiluentTrimix   Diluent = "trimix"
)

// maxNarcoticDepth caps the nitrogen load of a trimix fill: nitrogen may
// contribute at most the ppN2 of air at this equivalent depth, in meters.
const maxNarcoticDepth = 30.0

// OptimalMixture computes the richest safe mixture for a target depth:
// the O2 fraction that reaches targetPpO2 at that depth, clamped to
// [0.21, 1.0]. The remainder is nitrogen by default; with the trimix
// diluent, nitrogen is capped at its air-equivalent narcotic fraction and
// helium fills the rest.
func OptimalMixture(targetDepth, targetPpO2 float64, diluent Diluent) (GasMixture, error) {
	if targetDepth < 0 || targetPpO2 <= 0 {
		return GasMixture{}, fmt.Errorf("%w: optimal mixture needs a non-negative depth and positive ppO2", ErrInvalidStep)
	}

	ambient := DepthToPressure(targetDepth)
	o2 := targetPpO2 / ambient
	o2 = math.Min(1.0, math.Max(AirFO2, o2))

	switch diluent {
	case DiluentTrimix:
		maxPpN2 := AirFN2 * DepthToPressure(maxNarcoticDepth)
		n2 := math.Min(1.0-o2, maxPpN2/ambient)
		return NewTrimix(o2, n2, 1.0-o2-n2)
	case DiluentNitrogen, "":
		return NewGasMixture(o2, 1.0-o2)
	default:
		return GasMixture{}, fmt.Errorf("%w: unknown diluent %q", ErrInvalidStep, diluent)
	}
}

// consumeSegment charges one traversed leg against a cylinder. The
// surface-equivalent volume is the SAC rate scaled by the mean ambient
// pressure over the leg. Returns a ReserveWarning when the draw came out
// of the reserve.
func consumeSegment(cyl *GasCylinder, startDepth, endDepth, duration, sac float64) *ReserveWarning {
	meanAmbient := (DepthToPressure(startDepth) + DepthToPressure(endDepth)) / 2
	litres := sac * meanAmbient * duration
	return cyl.Consume(litres, endDepth)
}
