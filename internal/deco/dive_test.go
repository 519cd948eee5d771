package deco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDivePlan_Validation(t *testing.T) {
	_, err := NewDivePlan(nil, nil, GradientFactors{Low: 30, High: 85})
	assert.ErrorIs(t, err, ErrNoCylinders)

	air := mustCylinder(t, 24, 200, Air(), 50)
	_, err = NewDivePlan(nil, []*GasCylinder{air}, GradientFactors{Low: 0, High: 85})
	assert.ErrorIs(t, err, ErrInvalidGradientFactors)
}

func TestDivePlan_CalculateStepsPrependsDescent(t *testing.T) {
	air := mustCylinder(t, 24, 200, Air(), 50)
	bottom, err := NewDiveStep(25, 30, 30, air)
	require.NoError(t, err)

	plan, err := NewDivePlan([]DiveStep{bottom}, []*GasCylinder{air}, GradientFactors{Low: 30, High: 85})
	require.NoError(t, err)
	require.NoError(t, plan.CalculateSteps())

	profile := plan.Profile()
	require.Len(t, profile.Points, 2)
	assert.Equal(t, StepDescent, profile.Points[0].Kind)
	assert.Equal(t, 30.0, profile.Points[0].Depth)

	// The descent time comes out of the bottom step: total planned
	// runtime stays at 25 minutes.
	assert.InDelta(t, 25.0, profile.Runtime, 1e-9)
	assert.Equal(t, 30.0, profile.MaxDepth)
}

func TestDivePlan_FullCalculation(t *testing.T) {
	air := mustCylinder(t, 24, 200, Air(), 50)
	bottom, err := NewDiveStep(25, 30, 30, air)
	require.NoError(t, err)

	plan, err := NewDivePlan([]DiveStep{bottom}, []*GasCylinder{air}, GradientFactors{Low: 30, High: 85})
	require.NoError(t, err)
	require.NoError(t, plan.CalculateAscent())

	profile := plan.Profile()
	require.NotEmpty(t, profile.Points)

	last := profile.Points[len(profile.Points)-1]
	assert.Equal(t, 0.0, last.Depth)
	assert.False(t, last.Planned)
	assert.Equal(t, "ZHL-16C/GF", profile.Model)
	assert.Greater(t, profile.Runtime, 25.0)

	// Gas was consumed for every traversed leg, planned and computed.
	assert.Less(t, air.CurrentPressure, 200.0)

	// Runtime is the cumulative sum of point durations.
	total := 0.0
	for _, pt := range profile.Points {
		total += pt.Duration
		assert.InDelta(t, total, pt.Runtime, 1e-9)
	}
	assert.InDelta(t, total, profile.Runtime, 1e-9)
}

func TestDivePlan_CalculateAscentRunsStepsFirst(t *testing.T) {
	air := mustCylinder(t, 24, 200, Air(), 50)
	bottom, err := NewDiveStep(20, 18, 18, air)
	require.NoError(t, err)

	plan, err := NewDivePlan([]DiveStep{bottom}, []*GasCylinder{air}, GradientFactors{Low: 30, High: 85})
	require.NoError(t, err)

	// No explicit CalculateSteps call.
	require.NoError(t, plan.CalculateAscent())
	profile := plan.Profile()
	assert.Equal(t, 18.0, profile.MaxDepth)
	assert.Equal(t, StepDescent, profile.Points[0].Kind)
}

func TestDivePlan_CalculationIsIdempotent(t *testing.T) {
	air := mustCylinder(t, 24, 200, Air(), 50)
	bottom, err := NewDiveStep(25, 30, 30, air)
	require.NoError(t, err)

	plan, err := NewDivePlan([]DiveStep{bottom}, []*GasCylinder{air}, GradientFactors{Low: 30, High: 85})
	require.NoError(t, err)
	require.NoError(t, plan.CalculateAscent())

	before := plan.Profile()
	require.NoError(t, plan.CalculateSteps())
	require.NoError(t, plan.CalculateAscent())
	after := plan.Profile()

	assert.Equal(t, before.Runtime, after.Runtime)
	assert.Len(t, after.Points, len(before.Points))
}

func TestDivePlan_ReserveWarningsAccumulate(t *testing.T) {
	// A pony-sized bottom cylinder with an aggressive reserve: the
	// descent crosses into reserve, the bottom leg then draws on it.
	pony := mustCylinder(t, 3, 200, Air(), 190)
	stage := mustCylinder(t, 24, 200, Air(), 0)

	bottom, err := NewDiveStep(20, 30, 30, pony)
	require.NoError(t, err)

	plan, err := NewDivePlan([]DiveStep{bottom}, []*GasCylinder{pony, stage}, GradientFactors{Low: 30, High: 85})
	require.NoError(t, err)
	require.NoError(t, plan.CalculateAscent())

	profile := plan.Profile()
	require.NotEmpty(t, profile.Warnings)
	assert.Equal(t, "air", profile.Warnings[0].Cylinder)
	assert.True(t, pony.InReserve())

	// The calculation still completed all the way to the surface.
	assert.Equal(t, 0.0, profile.Points[len(profile.Points)-1].Depth)
}

func TestDivePlan_NoSafeGasSurfacesDepth(t *testing.T) {
	oxygen := mustCylinder(t, 7, 200, mustMix(t, 1.0, 0.0), 0)
	air := mustCylinder(t, 24, 200, Air(), 0)

	// The bottom leg breathes its own back gas, but the only cylinder
	// offered to the ascent planner is pure oxygen — unbreathable at
	// the deep stops this exposure demands.
	bottom, err := NewDiveStep(30, 40, 40, air)
	require.NoError(t, err)

	plan, err := NewDivePlan([]DiveStep{bottom}, []*GasCylinder{oxygen}, GradientFactors{Low: 30, High: 85})
	require.NoError(t, err)

	err = plan.CalculateAscent()
	var noGas *NoSafeGasError
	require.ErrorAs(t, err, &noGas)
	assert.Greater(t, noGas.Depth, 6.0)
}

func TestDivePlan_AddOptimalGasCylinder(t *testing.T) {
	air := mustCylinder(t, 24, 200, Air(), 50)
	bottom, err := NewDiveStep(25, 30, 30, air)
	require.NoError(t, err)

	plan, err := NewDivePlan([]DiveStep{bottom}, []*GasCylinder{air}, GradientFactors{Low: 30, High: 85})
	require.NoError(t, err)

	cyl, err := plan.AddOptimalGasCylinder(11, 200, 20, 1.4)
	require.NoError(t, err)
	assert.InDelta(t, 0.4667, cyl.Mix.O2, 0.0001)
	assert.Len(t, plan.Cylinders(), 2)

	// The new cylinder is available to the ascent and gets used at the
	// shallow stops.
	require.NoError(t, plan.CalculateAscent())
	used := false
	for _, pt := range plan.Profile().Points {
		if pt.Gas == cyl.Mix.Name() {
			used = true
		}
	}
	assert.True(t, used, "optimal deco cylinder was never breathed")
}

func TestDivePlan_EmptyStepList(t *testing.T) {
	air := mustCylinder(t, 12, 200, Air(), 0)

	plan, err := NewDivePlan(nil, []*GasCylinder{air}, GradientFactors{Low: 30, High: 85})
	require.NoError(t, err)
	require.NoError(t, plan.CalculateAscent())

	profile := plan.Profile()
	assert.Empty(t, profile.Points)
	assert.Equal(t, 0.0, profile.Runtime)
}
