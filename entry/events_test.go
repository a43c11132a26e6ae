// Public domain.

package entry_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soniakeys/emi/entry"
)

func ExampleEstimateAirburstAltitude() {
	fmt.Printf("%.1f km\n", entry.EstimateAirburstAltitude(15000, 5, 3300))
	fmt.Printf("%.1f km\n", entry.EstimateAirburstAltitude(18600, 19, 3300))
	fmt.Printf("%.1f km\n", entry.EstimateAirburstAltitude(20000, 50, 3300))
	// Output:
	// 0.0 km
	// 22.8 km
	// 15.0 km
}

func trace(peakAlt float64, temps ...float64) []entry.Sample {
	p := make([]entry.Sample, len(temps))
	for i, t := range temps {
		p[i] = entry.Sample{
			Time:        float64(i+1) * .01,
			Altitude:    peakAlt + .1*float64(len(temps)-i),
			Temperature: t,
		}
	}
	return p
}

func TestDetectAirburst(t *testing.T) {
	// sharp drop after the peak, high up
	p := trace(23, 3000, 4000, 5000, 3000, 2500)
	a := entry.DetectAirburst(p, 2)
	assert.True(t, a.Detected)
	assert.InDelta(t, .5, a.Cooling, 1e-12)
	assert.Equal(t, p[2].Altitude, a.Altitude)
	assert.Equal(t, 500., a.EnergyKT)

	// same drop but low
	p = trace(12, 3000, 4000, 5000, 3000, 2500)
	a = entry.DetectAirburst(p, 2)
	assert.False(t, a.Detected)
	assert.InDelta(t, .5, a.Cooling, 1e-12)
	assert.Equal(t, 0., a.EnergyKT)

	// gentle cooling
	p = trace(30, 3000, 4000, 5000, 4800, 4600)
	a = entry.DetectAirburst(p, 2)
	assert.False(t, a.Detected)
	assert.InDelta(t, .08, a.Cooling, 1e-12)

	// peak at the end of the profile, nothing after
	a = entry.DetectAirburst(trace(30, 1000, 2000), 1)
	assert.False(t, a.Detected)
	assert.Equal(t, 0., a.Cooling)

	assert.Equal(t, entry.Airburst{}, entry.DetectAirburst(nil, -1))
	assert.Equal(t, entry.Airburst{}, entry.DetectAirburst(p, 9))
}

func TestAirburstEnergy(t *testing.T) {
	for _, tc := range []struct {
		tK, alt, kt float64
	}{
		{5000, 23, 500},
		{5000, 18, 100},
		{4200, 30, 100},
		{3800, 30, 10},
		{3000, 30, 1},
	} {
		assert.Equal(t, tc.kt, entry.AirburstEnergy(tc.tK, tc.alt), "%g K %g km", tc.tK, tc.alt)
	}
}

func TestCrustThickness(t *testing.T) {
	// hot: 1.5 × skin depth, capped at 2 mm
	assert.InDelta(t, 1.5, entry.CrustThickness(3500, 1, 1e-6), 1e-12)
	assert.Equal(t, 2., entry.CrustThickness(3500, 17.5, 1e-6))
	// cool: skin depth, capped at 1 mm
	assert.InDelta(t, .5, entry.CrustThickness(2000, .25, 1e-6), 1e-12)
	assert.Equal(t, 1., entry.CrustThickness(2000, 4, 1e-6))
	assert.Equal(t, 0., entry.CrustThickness(5000, 0, 1e-6))
}

func TestKineticEnergy(t *testing.T) {
	e := entry.KineticEnergyKT(18600, 19, 3300)
	assert.InDelta(t, 490, e, 5)
	assert.Less(t, entry.KineticEnergyKT(15000, 5, 3300), 10.)
}
