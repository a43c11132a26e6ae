// Public domain.

package weather_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soniakeys/emi/weather"
)

func ExampleAssessor_Assess() {
	a := weather.New(weather.DefaultTables())
	r := a.Assess(map[string]float64{
		weather.MetalOxidation: .05,
		weather.Phyllosilicate: .02,
		weather.CarbonateVeins: 0,
		weather.BeNeDeviation:  .01,
		weather.FeNiDeviation:  .01,
	})
	fmt.Printf("TWI %.4f %s %s\n", r.TWI, r.Grade.Code, r.Grade.Name)
	fmt.Printf("age %.0f ± %.0f years\n", r.Age.Years, r.Age.Precision)
	// Output:
	// TWI 0.0225 W0 FRESH
	// age 992 ± 8000 years
}

func TestIndex(t *testing.T) {
	a := weather.New(weather.DefaultTables())
	assert.InDelta(t, .45, a.Index(map[string]float64{
		weather.MetalOxidation: .6,
		weather.Phyllosilicate: .5,
		weather.CarbonateVeins: .4,
		weather.BeNeDeviation:  .3,
		weather.FeNiDeviation:  .2,
	}), 1e-12)
	assert.Equal(t, 0., a.Index(nil))
	assert.Equal(t, 1., a.Index(map[string]float64{
		weather.MetalOxidation: 9, weather.Phyllosilicate: 9,
	}))
	assert.Equal(t, 0., a.Index(map[string]float64{weather.MetalOxidation: -2}))
	assert.InDelta(t, .3, a.Index(map[string]float64{
		weather.MetalOxidation: 1, weather.FeNiDeviation: math.NaN(),
	}), 1e-15)
}

func TestTerrestrialAge(t *testing.T) {
	a := weather.New(weather.DefaultTables())
	for _, twi := range []float64{0, .0225, .1, .45, 1} {
		age := a.TerrestrialAge(twi)
		assert.InDelta(t, 12400*math.Log(1+3.7*twi), age.Years, 1e-9)
		assert.Equal(t, 8000., age.Precision)
		assert.GreaterOrEqual(t, age.Min, 0.)
		assert.Equal(t, age.Years+8000, age.Max)
	}
	assert.Equal(t, 0., a.TerrestrialAge(0).Years)
}

func TestGradeFor(t *testing.T) {
	for _, tc := range []struct {
		twi        float64
		code, name string
	}{
		{0, "W0", "FRESH"},
		{.1, "W0", "FRESH"},
		{.15, "W1", "MINOR"},
		{.2, "W1", "MINOR"},
		{.3, "W2", "MODERATE"},
		{.4, "W2", "MODERATE"},
		{.5, "W3", "EXTENSIVE"},
		{.6, "W3", "EXTENSIVE"},
		{.7, "W4/5", "SEVERE"},
		{.8, "W4/5", "SEVERE"},
	} {
		g := weather.GradeFor(tc.twi)
		assert.Equal(t, tc.code, g.Code, "TWI %g", tc.twi)
		assert.Equal(t, tc.name, g.Name, "TWI %g", tc.twi)
		assert.NotEmpty(t, g.Description)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, weather.DefaultTables().Validate())
	tb := weather.DefaultTables()
	tb.AgeRate = 0
	assert.Error(t, tb.Validate())
}
