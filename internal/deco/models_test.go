package deco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// GasMixture Tests
// =============================================================================

func TestNewGasMixture_FractionsMustSumToOne(t *testing.T) {
	_, err := NewGasMixture(0.21, 0.80)
	assert.ErrorIs(t, err, ErrInvalidGasFraction)

	_, err = NewTrimix(0.18, 0.37, 0.40)
	assert.ErrorIs(t, err, ErrInvalidGasFraction)

	mix, err := NewGasMixture(0.21, 0.79)
	require.NoError(t, err)
	assert.Equal(t, Air(), mix)
}

func TestNewGasMixture_RejectsOutOfRangeFractions(t *testing.T) {
	_, err := NewGasMixture(-0.1, 1.1)
	assert.ErrorIs(t, err, ErrInvalidGasFraction)

	_, err = NewTrimix(1.2, -0.2, 0.0)
	assert.ErrorIs(t, err, ErrInvalidGasFraction)
}

func TestGasMixture_ToleratesTinyDrift(t *testing.T) {
	_, err := NewGasMixture(0.2100000004, 0.79)
	assert.NoError(t, err)
}

func TestGasMixture_PpO2(t *testing.T) {
	air := Air()

	// Air at 20 m: ambient 3.0 bar, ppO2 0.63 — safely under 1.4.
	assert.InDelta(t, 0.63, air.PpO2(DepthToPressure(20)), 1e-9)

	// Air at 57 m: ambient 6.7 bar, ppO2 1.407 — over the bottom limit.
	ppO2 := air.PpO2(DepthToPressure(57))
	assert.InDelta(t, 1.407, ppO2, 1e-9)
	assert.Greater(t, ppO2, 1.4)
}

func TestGasMixture_MaxOperatingDepth(t *testing.T) {
	// Air at ppO2 1.4 is breathable down to about 56.7 m.
	assert.InDelta(t, 56.67, Air().MaxOperatingDepth(1.4), 0.01)

	oxygen, err := NewGasMixture(1.0, 0.0)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, oxygen.MaxOperatingDepth(1.6), 1e-9)
}

func TestGasMixture_Name(t *testing.T) {
	nx50, err := NewGasMixture(0.50, 0.50)
	require.NoError(t, err)
	tx1845, err := NewTrimix(0.18, 0.37, 0.45)
	require.NoError(t, err)
	oxygen, err := NewGasMixture(1.0, 0.0)
	require.NoError(t, err)

	assert.Equal(t, "air", Air().Name())
	assert.Equal(t, "nx50", nx50.Name())
	assert.Equal(t, "tx18/45", tx1845.Name())
	assert.Equal(t, "oxygen", oxygen.Name())
}

// =============================================================================
// GasCylinder Tests
// =============================================================================

func TestNewGasCylinder_Validation(t *testing.T) {
	_, err := NewGasCylinder(0, 200, Air(), 50)
	assert.ErrorIs(t, err, ErrInvalidCylinder)

	_, err = NewGasCylinder(12, 200, Air(), 250)
	assert.ErrorIs(t, err, ErrInvalidCylinder)

	cyl, err := NewGasCylinder(12, 200, Air(), 50)
	require.NoError(t, err)
	assert.Equal(t, 200.0, cyl.CurrentPressure)
	assert.False(t, cyl.InReserve())
	assert.InDelta(t, 1800.0, cyl.UsableVolume(), 1e-9)
}

func TestGasCylinder_ReserveCrossing(t *testing.T) {
	cyl, err := NewGasCylinder(10, 200, Air(), 50)
	require.NoError(t, err)

	// Draw down to 60 bar: above reserve, no warning.
	w := cyl.Consume(1400, 30)
	assert.Nil(t, w)
	assert.InDelta(t, 60.0, cyl.CurrentPressure, 1e-9)
	assert.False(t, cyl.InReserve())

	// Crossing draw: flags the cylinder but does not warn yet.
	w = cyl.Consume(150, 30)
	assert.Nil(t, w)
	assert.True(t, cyl.InReserve())

	// Every draw after the crossing warns.
	w = cyl.Consume(10, 24)
	require.NotNil(t, w)
	assert.Equal(t, "air", w.Cylinder)
	assert.Equal(t, 24.0, w.Depth)

	w = cyl.Consume(10, 21)
	assert.NotNil(t, w)
}

func TestGasCylinder_PressureNeverGoesNegative(t *testing.T) {
	cyl, err := NewGasCylinder(10, 200, Air(), 0)
	require.NoError(t, err)

	cyl.Consume(5000, 40)
	assert.Equal(t, 0.0, cyl.CurrentPressure)
	assert.Equal(t, 0.0, cyl.UsableVolume())
}

// =============================================================================
// DiveStep Tests
// =============================================================================

func TestNewDiveStep_Validation(t *testing.T) {
	cyl, err := NewGasCylinder(12, 200, Air(), 50)
	require.NoError(t, err)

	_, err = NewDiveStep(0, 0, 30, cyl)
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = NewDiveStep(-5, 0, 30, cyl)
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = NewDiveStep(10, -1, 30, cyl)
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = NewDiveStep(10, 0, 30, nil)
	assert.ErrorIs(t, err, ErrInvalidStep)

	step, err := NewDiveStep(10, 0, 30, cyl)
	require.NoError(t, err)
	assert.Equal(t, StepDescent, step.Kind())
}

func TestDiveStep_KindAndAmbient(t *testing.T) {
	cyl, err := NewGasCylinder(12, 200, Air(), 50)
	require.NoError(t, err)

	descent, _ := NewDiveStep(3, 0, 30, cyl)
	ascent, _ := NewDiveStep(3, 30, 9, cyl)
	hold, _ := NewDiveStep(20, 30, 30, cyl)

	assert.Equal(t, StepDescent, descent.Kind())
	assert.Equal(t, StepAscent, ascent.Kind())
	assert.Equal(t, StepConstant, hold.Kind())

	// Halfway through a 0→30 m descent the diver is at 15 m.
	assert.InDelta(t, DepthToPressure(15), descent.AmbientAt(1.5), 1e-9)
}

// =============================================================================
// GradientFactors Tests
// =============================================================================

func TestGradientFactors_Validate(t *testing.T) {
	assert.NoError(t, GradientFactors{Low: 30, High: 85}.Validate())
	assert.ErrorIs(t, GradientFactors{Low: 0, High: 85}.Validate(), ErrInvalidGradientFactors)
	assert.ErrorIs(t, GradientFactors{Low: 30, High: 120}.Validate(), ErrInvalidGradientFactors)
}

func TestGradientFactors_Interpolation(t *testing.T) {
	gf := GradientFactors{Low: 30, High: 80}

	// Before the first stop is known, GF low applies everywhere.
	assert.InDelta(t, 0.30, gf.at(40, 0), 1e-9)

	// At or below the first stop: GF low. At the surface: GF high.
	assert.InDelta(t, 0.30, gf.at(12, 12), 1e-9)
	assert.InDelta(t, 0.80, gf.at(0, 12), 1e-9)

	// Midway between first stop and surface: the midpoint.
	assert.InDelta(t, 0.55, gf.at(6, 12), 1e-9)
}
