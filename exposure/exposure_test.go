// Public domain.

package exposure_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/emi/exposure"
)

func ExampleEngine_Compute() {
	e := exposure.New(exposure.DefaultTables())
	r := e.Compute(map[string]float64{"he3": 30})
	fmt.Printf("%.1f ± %.1f Ma, CNEA %.2f, %s\n",
		r.AgeMa, r.Ages[0].Uncertainty, r.CNEA, r.History)
	// Output:
	// 20.0 ± 1.6 Ma, CNEA 0.20, Single-stage
}

func TestStable(t *testing.T) {
	e := exposure.New(exposure.DefaultTables())
	a, ok := e.NuclideAge("He3", 30)
	require.True(t, ok)
	assert.Equal(t, "he3", a.Nuclide)
	assert.InDelta(t, 20, a.Age, .1)
	assert.InDelta(t, 1.6, a.Uncertainty, 1e-9)
	assert.False(t, a.Radioactive)
	assert.False(t, a.DecayCorrected)
}

func TestRadioactive(t *testing.T) {
	e := exposure.New(exposure.DefaultTables())
	// half of saturation is one half-life
	a, ok := e.NuclideAge("be10", .05)
	require.True(t, ok)
	assert.True(t, a.Radioactive)
	assert.True(t, a.DecayCorrected)
	assert.False(t, a.Saturated)
	assert.InDelta(t, 1.386, a.Age, .001)
	assert.InDelta(t, .12*a.Age, a.Uncertainty, 1e-12)

	a, ok = e.NuclideAge("be10", .2)
	require.True(t, ok)
	assert.True(t, a.Saturated)
	assert.False(t, a.DecayCorrected)
	assert.InDelta(t, 3*1.387, a.Age, 1e-12)
	assert.InDelta(t, .2*a.Age, a.Uncertainty, 1e-12)

	for _, c := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, ok = e.NuclideAge("al26", c)
		assert.False(t, ok, "%g", c)
	}
	_, ok = e.NuclideAge("kr81", 1)
	assert.False(t, ok)
}

func TestConcordant(t *testing.T) {
	e := exposure.New(exposure.DefaultTables())
	r := e.Compute(map[string]float64{"he3": 30, "ne21": 7, "ar38": 1.6})
	assert.True(t, r.Concordant)
	assert.Equal(t, exposure.SingleStage, r.History)
	assert.Equal(t, 1, r.Stages)
	assert.InDelta(t, 20, r.AgeMa, 1e-9)
	assert.Equal(t, []string{"ar38", "he3", "ne21"}, r.Analyzed)
	assert.Empty(t, r.Excluded)
}

func TestDiscordant(t *testing.T) {
	e := exposure.New(exposure.DefaultTables())
	r := e.Compute(map[string]float64{"he3": 60, "ne21": 7, "ar38": 1.6})
	assert.False(t, r.Concordant)
	assert.Equal(t, exposure.MultiStage, r.History)
	assert.Equal(t, 3, r.Stages)
	assert.InDelta(t, 200./9, r.AgeMa, 1e-9)
	assert.InDelta(t, 80./3, r.Concordance.MeanAge, 1e-9)
	assert.InDelta(t, 25./6, r.Concordance.MaxDeviation, 1e-9)
	assert.Len(t, r.Concordance.Deviations, 3)
}

func TestDuplicateNuclide(t *testing.T) {
	e := exposure.New(exposure.DefaultTables())
	for i := 0; i < 20; i++ {
		r := e.Compute(map[string]float64{"He3": 30, "he3": 60, "ne21": 7})
		assert.Equal(t, []string{"he3", "ne21"}, r.Analyzed)
		assert.Equal(t, []exposure.Exclusion{
			{Nuclide: "he3", Value: 60, Reason: exposure.Duplicate},
		}, r.Excluded)
		assert.InDelta(t, 20, r.AgeMa, 1e-9)
		assert.True(t, r.Concordant)
		assert.Len(t, r.Concordance.Deviations, 2)
	}
}

func TestEmpty(t *testing.T) {
	e := exposure.New(exposure.DefaultTables())
	r := e.Compute(map[string]float64{"he3": 0, "ne21": math.NaN(), "xe126": 4})
	assert.Equal(t, 0., r.CNEA)
	assert.Equal(t, 0., r.AgeMa)
	assert.Equal(t, exposure.Unknown, r.History)
	assert.True(t, r.Concordant)
	assert.Empty(t, r.Analyzed)
	assert.Equal(t, []exposure.Exclusion{
		{Nuclide: "he3", Value: 0, Reason: exposure.NonPositive},
		{Nuclide: "xe126", Value: 4, Reason: exposure.UnknownNuclide},
	}, []exposure.Exclusion{r.Excluded[0], r.Excluded[2]})
	assert.Equal(t, exposure.NonFinite, r.Excluded[1].Reason)

	assert.Equal(t, exposure.Unknown, e.Compute(nil).History)
}

func TestCNEAUnclamped(t *testing.T) {
	e := exposure.New(exposure.DefaultTables())
	r := e.Compute(map[string]float64{"he3": 300})
	assert.InDelta(t, 2, r.CNEA, 1e-9)
}

func TestCheckConcordance(t *testing.T) {
	one := []exposure.Age{{Nuclide: "he3", Age: 12, Uncertainty: 1}}
	c := exposure.CheckConcordance(one, 2)
	assert.True(t, c.Concordant)
	assert.Equal(t, 12., c.MeanAge)
	assert.Equal(t, 0., c.MaxDeviation)

	c = exposure.CheckConcordance(nil, 2)
	assert.True(t, c.Concordant)

	// zero uncertainty is left out of deviations
	two := []exposure.Age{
		{Nuclide: "a", Age: 10, Uncertainty: 1},
		{Nuclide: "b", Age: 14},
	}
	c = exposure.CheckConcordance(two, 2)
	assert.Equal(t, map[string]float64{"a": 2}, c.Deviations)
	assert.True(t, c.Concordant)
	assert.False(t, exposure.CheckConcordance(two, 1.5).Concordant)
}

func TestFusedAge(t *testing.T) {
	assert.Equal(t, 0., exposure.FusedAge(nil))
	assert.Equal(t, 12., exposure.FusedAge([]exposure.Age{{Age: 10}, {Age: 14}}))
	assert.InDelta(t, 10.8, exposure.FusedAge([]exposure.Age{
		{Age: 10, Uncertainty: 1},
		{Age: 14, Uncertainty: 2},
	}), 1e-12)
}

func TestEstimateStages(t *testing.T) {
	ages := func(a ...float64) []exposure.Age {
		r := make([]exposure.Age, len(a))
		for i, x := range a {
			r[i].Age = x
		}
		return r
	}
	assert.Equal(t, 1, exposure.EstimateStages(ages(20)))
	assert.Equal(t, 1, exposure.EstimateStages(ages(20, 22)))
	assert.Equal(t, 2, exposure.EstimateStages(ages(20, 26)))
	assert.Equal(t, 3, exposure.EstimateStages(ages(20, 40)))
}

func TestShieldingDepth(t *testing.T) {
	for _, tc := range []struct{ ratio, cm float64 }{
		{0, 0}, {-1, 0}, {1, 10}, {5, 25}, {12, 50}, {20, 100},
	} {
		assert.Equal(t, tc.cm, exposure.ShieldingDepth(tc.ratio), "%g", tc.ratio)
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, exposure.DefaultTables().Validate())
	tb := exposure.DefaultTables()
	tb.Nuclides["he3"] = exposure.Nuclide{}
	assert.Error(t, tb.Validate())
	tb = exposure.DefaultTables()
	tb.ReferenceAge = 0
	assert.Error(t, tb.Validate())
}
