// Public domain.

// Package hse estimates parent body differentiation (PBDR) from the
// depletion of highly siderophile elements relative to CI chondrite.
//
// Measurements pass through a validity filter first.  Values that are not
// numbers, not finite, not positive, or that name an element without a
// reference abundance are dropped and listed, never treated as errors.
package hse

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Tables is the PBDR calibration.
type Tables struct {
	// Reference is the CI chondrite abundance in ng/g, by lower case
	// element symbol.
	Reference map[string]float64 `yaml:"reference" json:"reference"`
	// LowAbundance in ng/g separates mantle from core material at the
	// high PBDR extreme.
	LowAbundance float64 `yaml:"low_abundance" json:"low_abundance"`
}

// DefaultTables returns CI abundances for Os, Ir, Ru, Pt, Pd, Re and Au.
func DefaultTables() Tables {
	return Tables{
		Reference: map[string]float64{
			"os": 486,
			"ir": 481,
			"ru": 712,
			"pt": 1010,
			"pd": 560,
			"re": 37,
			"au": 140,
		},
		LowAbundance: 50,
	}
}

// Validate requires positive reference abundances.
func (t Tables) Validate() error {
	for e, v := range t.Reference {
		if !(v > 0) || math.IsInf(v, 1) {
			return fmt.Errorf("hse: reference abundance %s = %g", e, v)
		}
		if e != strings.ToLower(e) {
			return fmt.Errorf("hse: reference key %q not lower case", e)
		}
	}
	return nil
}

// Reason says why a measurement was excluded.
type Reason string

const (
	NotNumeric     Reason = "not-numeric"
	NonPositive    Reason = "non-positive"
	NonFinite      Reason = "non-finite"
	UnknownElement Reason = "unknown-element"
	Duplicate      Reason = "duplicate"
)

// Exclusion records one dropped measurement.
type Exclusion struct {
	Element string `json:"element"`
	Value   any    `json:"value"`
	Reason  Reason `json:"reason"`
}

// number converts the numeric kinds a decoded map can carry.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// Filter splits measurements into the valid subset, keyed by lower case
// symbol, and the exclusions.  Keys naming the same element are taken in
// sorted order, the first valid one is used and later valid ones are
// excluded as Duplicate.  Exclusions are sorted by element.
func (t Tables) Filter(values map[string]any) (valid map[string]float64, excluded []Exclusion) {
	valid = map[string]float64{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := values[k]
		e := strings.ToLower(strings.TrimSpace(k))
		x, ok := number(v)
		switch {
		case !ok:
			excluded = append(excluded, Exclusion{k, v, NotNumeric})
		case math.IsNaN(x) || math.IsInf(x, 0):
			excluded = append(excluded, Exclusion{k, v, NonFinite})
		case x <= 0:
			excluded = append(excluded, Exclusion{k, v, NonPositive})
		case t.Reference[e] <= 0:
			excluded = append(excluded, Exclusion{k, v, UnknownElement})
		case hasKey(valid, e):
			excluded = append(excluded, Exclusion{k, v, Duplicate})
		default:
			valid[e] = x
		}
	}
	sort.SliceStable(excluded, func(i, j int) bool {
		return excluded[i].Element < excluded[j].Element
	})
	return
}

func hasKey(m map[string]float64, k string) bool {
	_, ok := m[k]
	return ok
}

// Result is a PBDR estimate.
type Result struct {
	PBDR            float64     `json:"pbdr"`
	MeanRatio       float64     `json:"avg_hse_ratio"`
	Differentiation string      `json:"differentiation"`
	ParentBody      string      `json:"parent_body_type"`
	Analyzed        []string    `json:"elements_analyzed"`
	Excluded        []Exclusion `json:"excluded,omitempty"`
}

// Band is a labeled PBDR interval starting at Lower.
type Band struct {
	Lower float64
	Label string
}

// Differentiation lists differentiation bands in increasing order.
var Differentiation = []Band{
	{0, "Undifferentiated (Chondritic)"},
	{.1, "Partially differentiated"},
	{.35, "Moderately differentiated"},
	{.65, "Highly differentiated"},
	{.85, "Fully differentiated (Core/Mantle)"},
}

// ParentBodies lists parent body bands in increasing order.  Above .9 the
// label depends on abundances, see ParentBody.
var ParentBodies = []Band{
	{0, "Undifferentiated asteroid (chondritic)"},
	{.1, "Partially differentiated body"},
	{.3, "Differentiated asteroid (e.g., Vesta-like)"},
	{.6, "Highly differentiated body (mantle/crust sample)"},
}

const (
	mantle = "Vesta-like differentiated body (mantle sample)"
	core   = "Core material (fully differentiated)"
	// reported when nothing valid was measured
	undifferentiated = "Undifferentiated asteroid"
)

func label(bands []Band, x float64) string {
	l := bands[0].Label
	for _, b := range bands[1:] {
		if x < b.Lower {
			break
		}
		l = b.Label
	}
	return l
}

// DifferentiationFor labels a PBDR value.
func DifferentiationFor(pbdr float64) string { return label(Differentiation, pbdr) }

// ParentBody labels the likely parent body.  Above .9 material is mantle
// if every valid abundance is below the low abundance threshold, core
// otherwise.
func (t Tables) ParentBody(pbdr float64, valid map[string]float64) string {
	if pbdr < .9 {
		return label(ParentBodies, pbdr)
	}
	for _, v := range valid {
		if v >= t.LowAbundance {
			return core
		}
	}
	return mantle
}

// Estimator computes PBDR with a fixed calibration.
type Estimator struct {
	t Tables
}

// New returns an Estimator for t.
func New(t Tables) *Estimator { return &Estimator{t} }

// Estimate computes PBDR = 1 - mean(abundance/reference), clamped to
// [0,1], over the valid measurements.  With nothing valid PBDR is 0.
func (e *Estimator) Estimate(values map[string]any) Result {
	valid, excluded := e.t.Filter(values)
	r := Result{Excluded: excluded, Analyzed: make([]string, 0, len(valid))}
	if len(valid) == 0 {
		r.Differentiation = Differentiation[0].Label
		r.ParentBody = undifferentiated
		return r
	}
	for el := range valid {
		r.Analyzed = append(r.Analyzed, el)
	}
	sort.Strings(r.Analyzed)
	for _, el := range r.Analyzed {
		r.MeanRatio += valid[el] / e.t.Reference[el]
	}
	r.MeanRatio /= float64(len(r.Analyzed))
	r.PBDR = math.Max(0, math.Min(1, 1-r.MeanRatio))
	r.Differentiation = DifferentiationFor(r.PBDR)
	r.ParentBody = e.t.ParentBody(r.PBDR, valid)
	return r
}

// EstimateFloat is Estimate for purely numeric input.
func (e *Estimator) EstimateFloat(values map[string]float64) Result {
	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = v
	}
	return e.Estimate(m)
}

// CoreFormationExtent maps PBDR to the fraction of metal segregated into
// a core, 1 - exp(-5·PBDR), reaching 1 at PBDR .99.
func CoreFormationExtent(pbdr float64) float64 {
	switch {
	case pbdr >= .99:
		return 1
	case !(pbdr > 0):
		return 0
	}
	return math.Min(1, 1-math.Exp(-5*pbdr))
}
