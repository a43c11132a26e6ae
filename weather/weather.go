// Public domain.

// Package weather computes the terrestrial weathering index (TWI) of a
// recovered specimen, an estimate of its terrestrial residence age, and a
// weathering grade.
package weather

import (
	"fmt"
	"math"
)

// Indicator names.  Each is expected pre-normalized to [0,1].
const (
	MetalOxidation = "metal_oxidation"
	Phyllosilicate = "phyllosilicate"
	CarbonateVeins = "carbonate_veins"
	BeNeDeviation  = "be_ne_deviation"
	FeNiDeviation  = "fe_ni_deviation"
)

// Tables is the TWI calibration.
//
// The age map is Age = AgeScale·ln(1 + AgeRate·TWI) years, reported with
// a fixed ±AgePrecision.
type Tables struct {
	Weights      map[string]float64 `yaml:"weights" json:"weights"`
	AgeScale     float64            `yaml:"age_scale" json:"age_scale"`
	AgeRate      float64            `yaml:"age_rate" json:"age_rate"`
	AgePrecision float64            `yaml:"age_precision" json:"age_precision"`
}

// DefaultTables returns the standard TWI calibration.
func DefaultTables() Tables {
	return Tables{
		Weights: map[string]float64{
			MetalOxidation: .30,
			Phyllosilicate: .25,
			CarbonateVeins: .20,
			BeNeDeviation:  .15,
			FeNiDeviation:  .10,
		},
		AgeScale:     12400,
		AgeRate:      3.7,
		AgePrecision: 8000,
	}
}

// Validate rejects negative weights and a non-increasing age map.
func (t Tables) Validate() error {
	for n, w := range t.Weights {
		if !(w >= 0) {
			return fmt.Errorf("weather: weight %s = %g", n, w)
		}
	}
	if !(t.AgeScale > 0) || !(t.AgeRate > 0) || t.AgePrecision < 0 {
		return fmt.Errorf("weather: invalid age map %g·ln(1+%g·TWI) ±%g",
			t.AgeScale, t.AgeRate, t.AgePrecision)
	}
	return nil
}

// order fixes summation order so results do not depend on map iteration.
var order = []string{
	MetalOxidation, Phyllosilicate, CarbonateVeins, BeNeDeviation, FeNiDeviation,
}

// Age is a terrestrial age estimate in years.
type Age struct {
	Years     float64 `json:"age_years"`
	Precision float64 `json:"precision"`
	Min       float64 `json:"age_min"` // floored at 0
	Max       float64 `json:"age_max"`
}

// Grade is a weathering grade.
type Grade struct {
	Code        string  `json:"grade"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Lower       float64 `json:"-"`
}

// Grades lists weathering grades in order of increasing TWI.
var Grades = []Grade{
	{"W0", "FRESH", "Negligible weathering. <500 years terrestrial age.", 0},
	{"W1", "MINOR", "Slight oxidation. 500-3,000 years.", .15},
	{"W2", "MODERATE", "Significant oxidation. 3,000-12,000 years.", .30},
	{"W3", "EXTENSIVE", "Major alteration. 12,000-30,000 years.", .50},
	{"W4/5", "SEVERE", "Pervasive alteration. >30,000 years.", .70},
}

// GradeFor returns the grade for a TWI value.  A value at a boundary gets
// the higher grade.
func GradeFor(twi float64) Grade {
	g := Grades[0]
	for _, c := range Grades[1:] {
		if twi < c.Lower {
			break
		}
		g = c
	}
	return g
}

// Result bundles the index, age and grade.
type Result struct {
	TWI   float64 `json:"twi"`
	Age   Age     `json:"terrestrial_age"`
	Grade Grade   `json:"grade"`
}

// Assessor computes TWI with a fixed calibration.
type Assessor struct {
	t Tables
}

// New returns an Assessor for t.
func New(t Tables) *Assessor { return &Assessor{t} }

// Index is the weighted sum of indicators, clamped to [0,1].  Absent and
// non-finite indicators contribute zero.
func (a *Assessor) Index(ind map[string]float64) float64 {
	var s float64
	for _, n := range order {
		v, ok := ind[n]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s += a.t.Weights[n] * v
	}
	return math.Max(0, math.Min(1, s))
}

// TerrestrialAge converts a TWI value to an age estimate.
func (a *Assessor) TerrestrialAge(twi float64) Age {
	y := a.t.AgeScale * math.Log1p(a.t.AgeRate*twi)
	return Age{
		Years:     y,
		Precision: a.t.AgePrecision,
		Min:       math.Max(0, y-a.t.AgePrecision),
		Max:       y + a.t.AgePrecision,
	}
}

// Assess computes index, age and grade together.
func (a *Assessor) Assess(ind map[string]float64) Result {
	twi := a.Index(ind)
	return Result{
		TWI:   twi,
		Age:   a.TerrestrialAge(twi),
		Grade: GradeFor(twi),
	}
}
