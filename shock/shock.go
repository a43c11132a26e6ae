// Public domain.

// Package shock estimates peak shock pressure and shock stage (SMG) from
// petrographic shock indicators.
package shock

import (
	"fmt"
	"math"
	"sort"
)

// Indicator names.
const (
	OlivinePlanar      = "olivine_planar"
	FeldsparState      = "feldspar_state"
	MetalMelting       = "metal_melting"
	HighPressurePhases = "high_pressure_phases"
	SulfideState       = "sulfide_state"
	Porosity           = "porosity"
)

// pressure maps, indicator value in [0,1] to GPa.  Each is specific to its
// indicator.

func olivine(x float64) float64 {
	return step(x, []float64{.1, .25, .45, .65, .85}, []float64{4, 8, 15, 28, 45, 70})
}

func feldspar(x float64) float64 {
	return step(x, []float64{.2, .4, .6, .8}, []float64{4, 12, 25, 40, 65})
}

func metal(x float64) float64 { return 8 + 55*x }

func highPressure(x float64) float64 {
	return step(x, []float64{.1, .3, .6}, []float64{0, 22, 38, 58})
}

func sulfide(x float64) float64 { return 4 + 38*x }

func porosity(x float64) float64 { return 2 + 48*(1-x) }

// step returns p[i] for the first upper bound b[i] that x is below, or the
// last p if x is not below any.
func step(x float64, b, p []float64) float64 {
	for i, u := range b {
		if x < u {
			return p[i]
		}
	}
	return p[len(p)-1]
}

var pressureFunc = map[string]func(float64) float64{
	OlivinePlanar:      olivine,
	FeldsparState:      feldspar,
	MetalMelting:       metal,
	HighPressurePhases: highPressure,
	SulfideState:       sulfide,
	Porosity:           porosity,
}

// Pressure converts a single indicator value to GPa.  ok is false for an
// unknown indicator name.
func Pressure(indicator string, value float64) (p float64, ok bool) {
	f, ok := pressureFunc[indicator]
	if !ok {
		return 0, false
	}
	return f(clamp01(value)), true
}

// Tables is the SMG calibration.
type Tables struct {
	Weights map[string]float64 `yaml:"weights" json:"weights"`
	// Stage boundaries in GPa, S1 below the first, S6 at or above the last.
	Breakpoints []float64 `yaml:"breakpoints" json:"breakpoints"`
	// Pressure giving SMG 1.
	Ceiling float64 `yaml:"ceiling" json:"ceiling"`
}

// DefaultTables returns the standard SMG calibration.
func DefaultTables() Tables {
	return Tables{
		Weights: map[string]float64{
			OlivinePlanar:      .28,
			FeldsparState:      .24,
			MetalMelting:       .18,
			HighPressurePhases: .16,
			SulfideState:       .09,
			Porosity:           .05,
		},
		Breakpoints: []float64{5, 10, 20, 35, 55},
		Ceiling:     90,
	}
}

// Validate checks that weights name known indicators and breakpoints give
// six stages.
func (t Tables) Validate() error {
	for n, w := range t.Weights {
		if _, ok := pressureFunc[n]; !ok {
			return fmt.Errorf("shock: unknown indicator %q", n)
		}
		if !(w >= 0) || math.IsInf(w, 1) {
			return fmt.Errorf("shock: weight %s = %g", n, w)
		}
	}
	if len(t.Breakpoints) != 5 || !sort.Float64sAreSorted(t.Breakpoints) {
		return fmt.Errorf("shock: need 5 increasing breakpoints, have %v", t.Breakpoints)
	}
	if !(t.Ceiling > 0) {
		return fmt.Errorf("shock: ceiling %g must be positive", t.Ceiling)
	}
	return nil
}

// Result of SMG estimation.
type Result struct {
	SMG          float64            `json:"smg"`
	PeakPressure float64            `json:"peak_pressure_gpa"`
	Stage        string             `json:"shock_stage"`
	Pressures    map[string]float64 `json:"pressures,omitempty"`
	Ignored      []string           `json:"ignored,omitempty"`
}

// Estimator computes SMG with a fixed calibration.
type Estimator struct {
	t Tables
}

// New returns an Estimator for t.
func New(t Tables) *Estimator { return &Estimator{t} }

// Estimate fuses the indicators present into a peak pressure estimate.
//
// Values are clamped to [0,1].  Unknown indicator names and non-finite
// values are listed in Ignored.  With nothing usable the result is SMG 0,
// pressure 0, stage S1.
func (e *Estimator) Estimate(ind map[string]float64) Result {
	r := Result{Pressures: map[string]float64{}}
	names := make([]string, 0, len(ind))
	for n := range ind {
		names = append(names, n)
	}
	sort.Strings(names)
	var num, den float64
	for _, n := range names {
		v := ind[n]
		w, ok := e.t.Weights[n]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			r.Ignored = append(r.Ignored, n)
			continue
		}
		p, _ := Pressure(n, v)
		r.Pressures[n] = p
		num += w * p
		den += w
	}
	if den == 0 {
		r.Stage = e.Stage(0)
		return r
	}
	r.PeakPressure = num / den
	r.SMG = math.Min(1, r.PeakPressure/e.t.Ceiling)
	r.Stage = e.Stage(r.PeakPressure)
	return r
}

// Stage returns the shock stage, S1 through S6, for a pressure in GPa.
func (e *Estimator) Stage(gpa float64) string {
	s := 1
	for _, b := range e.t.Breakpoints {
		if gpa < b {
			break
		}
		s++
	}
	return fmt.Sprintf("S%d", s)
}

// PostShockTemperature estimates temperature after shock release from the
// Hugoniot relation
//
//   T = T0 + P·ΔV / (2·cv·ρ)
//
// with t0 in K, p in Pa, deltaV in m³/kg, cv in J/(kg·K) and rho in kg/m³.
func PostShockTemperature(t0, p, deltaV, cv, rho float64) float64 {
	return t0 + p*deltaV/(2*cv*rho)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
