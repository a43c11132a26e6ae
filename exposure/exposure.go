// Public domain.

// Package exposure computes cosmic ray exposure ages (CNEA) from cosmogenic
// nuclide concentrations.
//
// Stable nuclides accumulate linearly, age = N/P.  Radioactive nuclides
// approach saturation P/λ; below it age = -ln(1 - N/N_sat)/λ, at or above
// it the age is indistinguishable from saturation and three half-lives is
// reported as a floor.  Ages from several nuclides are fused by inverse
// variance weighting and tested for concordance.
package exposure

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Nuclide is a production model.  Concentrations are in atoms/g scaled so
// that Production is in the same units per Ma.
type Nuclide struct {
	Production float64 `yaml:"production" json:"production"`
	// HalfLife in Ma.  Zero means stable.
	HalfLife float64 `yaml:"half_life,omitempty" json:"half_life,omitempty"`
}

// Radioactive reports whether n decays.
func (n Nuclide) Radioactive() bool { return n.HalfLife > 0 }

// Tables is the CNEA calibration.
type Tables struct {
	Nuclides map[string]Nuclide `yaml:"nuclides" json:"nuclides"`
	// Relative age uncertainties.
	StableUncertainty    float64 `yaml:"stable_uncertainty" json:"stable_uncertainty"`
	DecayUncertainty     float64 `yaml:"decay_uncertainty" json:"decay_uncertainty"`
	SaturatedUncertainty float64 `yaml:"saturated_uncertainty" json:"saturated_uncertainty"`
	// SaturatedHalfLives is the age floor, in half-lives, of a saturated
	// nuclide.
	SaturatedHalfLives float64 `yaml:"saturated_half_lives" json:"saturated_half_lives"`
	// ConcordanceSigma is the largest deviation from the mean age, in
	// units of each age's uncertainty, of a concordant set.
	ConcordanceSigma float64 `yaml:"concordance_sigma" json:"concordance_sigma"`
	// ReferenceAge in Ma scales fused age to the CNEA score.
	ReferenceAge float64 `yaml:"reference_age" json:"reference_age"`
}

// DefaultTables returns production rates in atoms/g/Ma and half-lives in Ma
// for He-3, Ne-21, Ar-38, Be-10, Al-26 and Cl-36.
func DefaultTables() Tables {
	return Tables{
		Nuclides: map[string]Nuclide{
			"he3":  {Production: 1.5},
			"ne21": {Production: .35},
			"ar38": {Production: .08},
			"be10": {Production: .05, HalfLife: 1.387},
			"al26": {Production: .07, HalfLife: .717},
			"cl36": {Production: .03, HalfLife: .301},
		},
		StableUncertainty:    .08,
		DecayUncertainty:     .12,
		SaturatedUncertainty: .20,
		SaturatedHalfLives:   3,
		ConcordanceSigma:     2,
		ReferenceAge:         100,
	}
}

// Validate rejects non-positive production rates, negative half-lives and
// a non-positive reference age.
func (t Tables) Validate() error {
	for k, n := range t.Nuclides {
		if !(n.Production > 0) || n.HalfLife < 0 || math.IsNaN(n.HalfLife) {
			return fmt.Errorf("exposure: nuclide %s: %+v", k, n)
		}
		if k != strings.ToLower(k) {
			return fmt.Errorf("exposure: nuclide key %q not lower case", k)
		}
	}
	switch {
	case !(t.ReferenceAge > 0):
		return fmt.Errorf("exposure: reference age %g", t.ReferenceAge)
	case !(t.ConcordanceSigma > 0):
		return fmt.Errorf("exposure: concordance threshold %g", t.ConcordanceSigma)
	case t.StableUncertainty < 0 || t.DecayUncertainty < 0 || t.SaturatedUncertainty < 0:
		return fmt.Errorf("exposure: negative uncertainty")
	}
	return nil
}

// Age is the exposure age from one nuclide, Ma.
type Age struct {
	Nuclide        string  `json:"nuclide"`
	Age            float64 `json:"age_ma"`
	Uncertainty    float64 `json:"uncertainty_ma"`
	Radioactive    bool    `json:"radioactive"`
	Saturated      bool    `json:"saturated"`
	DecayCorrected bool    `json:"decay_corrected"`
}

// Reason says why a concentration was excluded.
type Reason string

const (
	NonPositive    Reason = "non-positive"
	NonFinite      Reason = "non-finite"
	UnknownNuclide Reason = "unknown-nuclide"
	Duplicate      Reason = "duplicate"
)

// Exclusion records one dropped concentration.
type Exclusion struct {
	Nuclide string  `json:"nuclide"`
	Value   float64 `json:"value"`
	Reason  Reason  `json:"reason"`
}

// Concordance is the result of a concordance test.
type Concordance struct {
	MeanAge      float64            `json:"mean_age"`
	MaxDeviation float64            `json:"max_deviation_sigma"`
	Threshold    float64            `json:"threshold_sigma"`
	Deviations   map[string]float64 `json:"deviations"`
	Concordant   bool               `json:"is_concordant"`
}

// Exposure histories.
const (
	SingleStage = "Single-stage"
	MultiStage  = "Multi-stage"
	Unknown     = "Unknown"
)

// Result is a fused exposure age.
type Result struct {
	// CNEA is AgeMa over the reference age.  It is not clamped.
	CNEA        float64     `json:"cnea"`
	AgeMa       float64     `json:"age_ma"`
	History     string      `json:"exposure_history"`
	Concordant  bool        `json:"is_concordant"`
	Stages      int         `json:"stages"`
	Ages        []Age       `json:"ages"`
	Concordance Concordance `json:"concordia"`
	Analyzed    []string    `json:"nuclides_analyzed"`
	Excluded    []Exclusion `json:"excluded,omitempty"`
}

// Engine computes exposure ages with a fixed calibration.
type Engine struct {
	t Tables
}

// New returns an Engine for t.
func New(t Tables) *Engine { return &Engine{t} }

// NuclideAge computes the age from concentration c of nuclide n.  ok is
// false when n is unknown or c is not a positive finite number.
func (e *Engine) NuclideAge(n string, c float64) (a Age, ok bool) {
	n = strings.ToLower(strings.TrimSpace(n))
	nu, known := e.t.Nuclides[n]
	if !known || !(c > 0) || math.IsInf(c, 1) {
		return Age{}, false
	}
	a.Nuclide = n
	if !nu.Radioactive() {
		a.Age = c / nu.Production
		a.Uncertainty = e.t.StableUncertainty * a.Age
		return a, true
	}
	a.Radioactive = true
	lambda := math.Ln2 / nu.HalfLife
	sat := nu.Production / lambda
	if c < sat {
		a.Age = -math.Log1p(-c/sat) / lambda
		a.Uncertainty = e.t.DecayUncertainty * a.Age
		a.DecayCorrected = true
		return a, true
	}
	a.Saturated = true
	a.Age = e.t.SaturatedHalfLives * nu.HalfLife
	a.Uncertainty = e.t.SaturatedUncertainty * a.Age
	return a, true
}

// Ages computes per-nuclide ages, sorted by nuclide, and the exclusions.
// Keys naming the same nuclide are taken in sorted order, the first with
// an age is used and later ones are excluded as Duplicate.
func (e *Engine) Ages(conc map[string]float64) (ages []Age, excluded []Exclusion) {
	keys := make([]string, 0, len(conc))
	for k := range conc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	seen := map[string]bool{}
	for _, k := range keys {
		c := conc[k]
		a, ok := e.NuclideAge(k, c)
		if ok && !seen[a.Nuclide] {
			seen[a.Nuclide] = true
			ages = append(ages, a)
			continue
		}
		x := Exclusion{Nuclide: k, Value: c}
		switch _, known := e.t.Nuclides[strings.ToLower(strings.TrimSpace(k))]; {
		case ok:
			x.Reason = Duplicate
		case math.IsNaN(c) || math.IsInf(c, 0):
			x.Reason = NonFinite
		case !(c > 0):
			x.Reason = NonPositive
		case !known:
			x.Reason = UnknownNuclide
		}
		excluded = append(excluded, x)
	}
	sort.Slice(ages, func(i, j int) bool { return ages[i].Nuclide < ages[j].Nuclide })
	sort.SliceStable(excluded, func(i, j int) bool { return excluded[i].Nuclide < excluded[j].Nuclide })
	return
}

// FusedAge is the inverse variance weighted mean of ages with positive
// uncertainty, or the plain mean if none have one.  It is 0 for no ages.
func FusedAge(ages []Age) float64 {
	var sw, swa, sa float64
	for _, a := range ages {
		sa += a.Age
		if a.Uncertainty > 0 {
			w := 1 / (a.Uncertainty * a.Uncertainty)
			sw += w
			swa += w * a.Age
		}
	}
	switch {
	case sw > 0:
		return swa / sw
	case len(ages) > 0:
		return sa / float64(len(ages))
	}
	return 0
}

// CheckConcordance tests whether every age lies within threshold of its
// own uncertainty from the unweighted mean age.  Fewer than two ages are
// trivially concordant.
func CheckConcordance(ages []Age, threshold float64) Concordance {
	c := Concordance{
		Threshold:  threshold,
		Deviations: map[string]float64{},
		Concordant: true,
	}
	if len(ages) == 0 {
		return c
	}
	for _, a := range ages {
		c.MeanAge += a.Age
	}
	c.MeanAge /= float64(len(ages))
	if len(ages) < 2 {
		return c
	}
	for _, a := range ages {
		if a.Uncertainty > 0 {
			d := math.Abs(a.Age-c.MeanAge) / a.Uncertainty
			c.Deviations[a.Nuclide] = d
			c.MaxDeviation = math.Max(c.MaxDeviation, d)
		}
	}
	c.Concordant = c.MaxDeviation <= threshold
	return c
}

// EstimateStages guesses the number of exposure stages from the spread of
// ages relative to their mean: over .5 three stages, over .2 two, else
// one.
func EstimateStages(ages []Age) int {
	if len(ages) < 2 {
		return 1
	}
	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.
	for _, a := range ages {
		lo = math.Min(lo, a.Age)
		hi = math.Max(hi, a.Age)
		sum += a.Age
	}
	mean := sum / float64(len(ages))
	if !(mean > 0) {
		return 1
	}
	switch spread := (hi - lo) / mean; {
	case spread > .5:
		return 3
	case spread > .2:
		return 2
	}
	return 1
}

// Compute fuses the ages from a set of concentrations.
//
// An empty valid set gives CNEA 0 with history Unknown.  A discordant set
// is multi-stage with at least two stages.
func (e *Engine) Compute(conc map[string]float64) Result {
	ages, excluded := e.Ages(conc)
	r := Result{
		Ages:     ages,
		Excluded: excluded,
		Analyzed: make([]string, len(ages)),
	}
	for i, a := range ages {
		r.Analyzed[i] = a.Nuclide
	}
	r.Concordance = CheckConcordance(ages, e.t.ConcordanceSigma)
	r.Concordant = r.Concordance.Concordant
	if len(ages) == 0 {
		r.History = Unknown
		return r
	}
	r.AgeMa = FusedAge(ages)
	r.CNEA = r.AgeMa / e.t.ReferenceAge
	if r.Concordant {
		r.History = SingleStage
		r.Stages = 1
	} else {
		r.History = MultiStage
		r.Stages = max(2, EstimateStages(ages))
	}
	return r
}

// ShieldingDepth estimates pre-atmospheric burial depth in cm from the
// Ne-21/Al-26 ratio.
func ShieldingDepth(ne21Al26 float64) float64 {
	switch {
	case !(ne21Al26 > 0):
		return 0
	case ne21Al26 < 5:
		return 10
	case ne21Al26 < 10:
		return 25
	case ne21Al26 < 20:
		return 50
	}
	return 100
}
