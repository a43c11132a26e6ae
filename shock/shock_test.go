// Public domain.

package shock_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soniakeys/emi/shock"
)

func ExampleEstimator_Stage() {
	e := shock.New(shock.DefaultTables())
	for _, p := range []float64{4, 7, 15, 25, 45, 60} {
		fmt.Print(e.Stage(p), " ")
	}
	fmt.Println()
	// Output:
	// S1 S2 S3 S4 S5 S6
}

func TestEstimate(t *testing.T) {
	e := shock.New(shock.DefaultTables())

	r := e.Estimate(map[string]float64{
		shock.OlivinePlanar:      .05,
		shock.FeldsparState:      .05,
		shock.MetalMelting:       0,
		shock.HighPressurePhases: 0,
		shock.SulfideState:       .05,
		shock.Porosity:           .95,
	})
	assert.InDelta(t, 4.271, r.PeakPressure, 1e-9)
	assert.Less(t, r.SMG, .1)
	assert.Equal(t, "S1", r.Stage)
	assert.Len(t, r.Pressures, 6)

	r = e.Estimate(map[string]float64{
		shock.OlivinePlanar:      .5,
		shock.FeldsparState:      .5,
		shock.MetalMelting:       .4,
		shock.HighPressurePhases: .3,
		shock.SulfideState:       .4,
		shock.Porosity:           .6,
	})
	assert.InDelta(t, 28.108, r.PeakPressure, 1e-9)
	assert.Greater(t, r.SMG, .3)
	assert.Less(t, r.SMG, .7)
	assert.Equal(t, "S4", r.Stage)
}

func TestEstimatePartial(t *testing.T) {
	e := shock.New(shock.DefaultTables())
	r := e.Estimate(map[string]float64{shock.OlivinePlanar: .5})
	assert.InDelta(t, 28, r.PeakPressure, 1e-12)
	assert.InDelta(t, 28./90, r.SMG, 1e-12)
	assert.Equal(t, "S4", r.Stage)
}

func TestEstimateIgnored(t *testing.T) {
	e := shock.New(shock.DefaultTables())
	r := e.Estimate(map[string]float64{
		"mosaicism":         .4,
		shock.MetalMelting:  math.NaN(),
		shock.SulfideState:  math.Inf(1),
		shock.OlivinePlanar: 2, // clamped to 1
	})
	assert.Equal(t, []string{shock.MetalMelting, "mosaicism", shock.SulfideState}, r.Ignored)
	assert.InDelta(t, 70, r.PeakPressure, 1e-12)
	assert.Equal(t, "S6", r.Stage)
}

func TestEstimateEmpty(t *testing.T) {
	r := shock.New(shock.DefaultTables()).Estimate(nil)
	assert.Equal(t, 0., r.SMG)
	assert.Equal(t, 0., r.PeakPressure)
	assert.Equal(t, "S1", r.Stage)
}

func TestSMGCapped(t *testing.T) {
	tb := shock.DefaultTables()
	tb.Ceiling = 50
	r := shock.New(tb).Estimate(map[string]float64{shock.OlivinePlanar: 1})
	assert.Equal(t, 1., r.SMG)
}

// Maps are monotonic in the direction of increasing shock.
func TestPressureMonotonic(t *testing.T) {
	for _, n := range []string{
		shock.OlivinePlanar, shock.FeldsparState, shock.MetalMelting,
		shock.HighPressurePhases, shock.SulfideState,
	} {
		last := -1.
		for x := 0.; x <= 1; x += .01 {
			p, ok := shock.Pressure(n, x)
			assert.True(t, ok)
			assert.GreaterOrEqual(t, p, last, n)
			last = p
		}
	}
	// porosity is inverse
	lo, _ := shock.Pressure(shock.Porosity, 1)
	hi, _ := shock.Pressure(shock.Porosity, 0)
	assert.Equal(t, 2., lo)
	assert.Equal(t, 50., hi)

	_, ok := shock.Pressure("nope", .5)
	assert.False(t, ok)
}

func TestPostShockTemperature(t *testing.T) {
	tp := shock.PostShockTemperature(300, 50e9, .001, 1000, 3300)
	assert.Greater(t, tp, 300.)
	assert.InDelta(t, 300+50e6/6.6e6, tp, 1e-9)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, shock.DefaultTables().Validate())
	tb := shock.DefaultTables()
	tb.Weights["bogus"] = 1
	assert.Error(t, tb.Validate())
	tb = shock.DefaultTables()
	tb.Breakpoints = []float64{5, 4, 20, 35, 55}
	assert.Error(t, tb.Validate())
}
