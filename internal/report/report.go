/*
Package report
File: report.go
Description:
    Renders a computed dive profile as human-readable text. Display-only
    concerns live here: merging trivially consecutive rows, unit
    conversion for imperial readers, and the reserve-warning footnotes.
    The engine itself stays unit- and format-agnostic.
*/

package report

import (
	"fmt"
	"strings"

	"github.com/everforgeworks/diveplan-server/internal/deco"
)

// Units selects the display system. The engine always computes in
// meters and bar; conversion happens here and nowhere else.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

const (
	feetPerMeter = 3.28084
	psiPerBar    = 14.5038
)

var kindSymbols = map[deco.StepKind]string{
	deco.StepDescent:  "▼",
	deco.StepAscent:   "▲",
	deco.StepConstant: "-",
}

// Render produces the text report for a finished profile: a header with
// the model and gradient factors, one row per leg, and any reserve
// warnings at the bottom.
func Render(p deco.Profile, units Units) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%.0f/%.0f)\n", p.Model, p.GradientFactors.Low, p.GradientFactors.High)

	for _, pt := range mergeConstantRows(p.Points) {
		symbol := kindSymbols[pt.Kind]
		if symbol == "" {
			symbol = "?"
		}
		fmt.Fprintf(&b, "%s %3.0f%s %4.0fmin %5.0fmin  %s\n",
			symbol, depthIn(pt.Depth, units), depthUnit(units),
			pt.Duration, pt.Runtime, pt.Gas)
	}

	if len(p.Warnings) > 0 {
		fmt.Fprintf(&b, "warnings:\n")
		for _, w := range p.Warnings {
			fmt.Fprintf(&b, "  reserve in use: %s at %.0f%s (%.0f %s left)\n",
				w.Cylinder, depthIn(w.Depth, units), depthUnit(units),
				pressureIn(w.Pressure, units), pressureUnit(units))
		}
	}

	return b.String()
}

// mergeConstantRows folds a constant-depth row into its predecessor when
// both hold the same depth on the same gas, so a stop interrupted only
// by bookkeeping renders as a single line.
func mergeConstantRows(points []deco.ProfilePoint) []deco.ProfilePoint {
	var out []deco.ProfilePoint
	for _, pt := range points {
		if n := len(out); n > 0 && pt.Kind == deco.StepConstant {
			prev := &out[n-1]
			if prev.Kind == deco.StepConstant && prev.Depth == pt.Depth && prev.Gas == pt.Gas {
				prev.Duration += pt.Duration
				prev.Runtime = pt.Runtime
				prev.Ceiling = pt.Ceiling
				prev.GasPressure = pt.GasPressure
				continue
			}
		}
		out = append(out, pt)
	}
	return out
}

func depthIn(meters float64, units Units) float64 {
	if units == UnitsImperial {
		return meters * feetPerMeter
	}
	return meters
}

func depthUnit(units Units) string {
	if units == UnitsImperial {
		return "ft"
	}
	return "m"
}

func pressureIn(bar float64, units Units) float64 {
	if units == UnitsImperial {
		return bar * psiPerBar
	}
	return bar
}

func pressureUnit(units Units) string {
	if units == UnitsImperial {
		return "psi"
	}
	return "bar"
}
