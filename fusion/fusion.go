// Public domain.

// Package fusion normalizes individual parameter scores and fuses them into
// the composite EMI index.
//
// A Fuser holds a weight for each parameter and a (min, max) normalization
// range for each.  Fuse combines whichever parameters are present,
//
//   EMI = Σ wᵢ·norm(pᵢ) / Σ wᵢ
//
// with the sums running over present parameters only, so the effective
// weights always sum to 1 and EMI lies in [0,1].  No parameters at all gives
// EMI = 0.
package fusion

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Parameter names of the seven scores fused by default.
const (
	MCC  = "mcc"
	SMG  = "smg"
	TWI  = "twi"
	IAF  = "iaf"
	ATP  = "atp"
	PBDR = "pbdr"
	CNEA = "cnea"
)

// Threshold is the normalization range of one parameter.
type Threshold struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Thresholds maps parameter names to ranges.
type Thresholds map[string]Threshold

// Weights maps parameter names to fusion weights.
type Weights map[string]float64

// ErrUnknownParameter matches any *UnknownParameterError.
var ErrUnknownParameter = errors.New("unknown parameter")

// ErrDegenerateThreshold is returned for a range with Max < Min.
var ErrDegenerateThreshold = errors.New("degenerate threshold")

// UnknownParameterError names a parameter with no registered threshold.
type UnknownParameterError struct {
	Name string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter %q", e.Name)
}

func (e *UnknownParameterError) Is(target error) bool {
	return target == ErrUnknownParameter
}

// DefaultWeights returns a fresh copy of the standard EMI weights.
func DefaultWeights() Weights {
	return Weights{
		MCC:  .26,
		SMG:  .19,
		TWI:  .18,
		IAF:  .17,
		ATP:  .10,
		PBDR: .06,
		CNEA: .04,
	}
}

// DefaultThresholds returns a fresh copy of the standard normalization
// ranges.  Peak entry temperature is in °C, exposure age in Ma.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MCC:  {0, 1},
		SMG:  {0, 1},
		TWI:  {0, 1},
		IAF:  {0, 1},
		ATP:  {0, 6000},
		PBDR: {0, 1},
		CNEA: {0, 100},
	}
}

// Normalize clips value to the named range and rescales it to [0,1].
//
// A range with Min == Max normalizes everything to 0.5.  NaN normalizes
// to 0.
func Normalize(value float64, name string, t Thresholds) (float64, error) {
	th, ok := t[name]
	if !ok {
		return 0, &UnknownParameterError{name}
	}
	return th.normalize(value)
}

func (th Threshold) normalize(v float64) (float64, error) {
	switch {
	case th.Max < th.Min:
		return 0, fmt.Errorf("[%g, %g]: %w", th.Min, th.Max, ErrDegenerateThreshold)
	case th.Max == th.Min:
		return .5, nil
	case math.IsNaN(v) || v <= th.Min:
		return 0, nil
	case v >= th.Max:
		return 1, nil
	}
	return (v - th.Min) / (th.Max - th.Min), nil
}

// Band is one of the five EMI classification bands.
type Band struct {
	Label  string  `json:"label"`
	Action string  `json:"action"`
	Lower  float64 `json:"lower"` // inclusive lower bound on EMI
}

// Bands lists the classification bands in increasing order of EMI.
var Bands = []Band{
	{"UNAMBIGUOUS", "Direct MetBull submission", 0},
	{"HIGH CONFIDENCE", "Standard expert review", .2},
	{"BOUNDARY ZONE", "Multi-parameter disambiguation required", .4},
	{"ANOMALOUS", "Expert committee + isotopic verification", .6},
	{"UNGROUPED CANDIDATE", "Full consortium characterization", .8},
}

// BandFor returns the band containing emi.
func BandFor(emi float64) Band {
	b := Bands[0]
	for _, c := range Bands[1:] {
		if emi < c.Lower {
			break
		}
		b = c
	}
	return b
}

// Contribution records how one parameter entered the fused index.
type Contribution struct {
	Value      float64 `json:"value"`
	Normalized float64 `json:"normalized"`
	Weight     float64 `json:"weight"` // effective weight after renormalization
}

// Result is a fused EMI value.
type Result struct {
	EMI           float64                 `json:"emi"`
	Band          Band                    `json:"band"`
	Contributions map[string]Contribution `json:"contributions"`
	Missing       []string                `json:"missing,omitempty"` // weighted but not supplied
	Ignored       []string                `json:"ignored,omitempty"` // supplied but not weighted
}

// Fuser fuses parameter scores with a fixed weight set.  It is safe for
// concurrent use.
type Fuser struct {
	names []string // sorted, fixes summation order
	w     Weights
	t     Thresholds
}

// NewFuser validates weights and thresholds and returns a Fuser.
//
// Every weighted parameter needs a threshold.  Weights must be finite and
// non-negative.  Thresholds must have Max >= Min.
func NewFuser(w Weights, t Thresholds) (*Fuser, error) {
	f := &Fuser{w: Weights{}, t: Thresholds{}}
	for n, th := range t {
		if th.Max < th.Min || math.IsNaN(th.Min) || math.IsNaN(th.Max) {
			return nil, fmt.Errorf("threshold %s [%g, %g]: %w",
				n, th.Min, th.Max, ErrDegenerateThreshold)
		}
		f.t[n] = th
	}
	for n, wt := range w {
		if !(wt >= 0) || math.IsInf(wt, 1) {
			return nil, fmt.Errorf("weight %s = %g: must be finite and non-negative", n, wt)
		}
		if _, ok := t[n]; !ok {
			return nil, fmt.Errorf("weight %s: %w", n, &UnknownParameterError{n})
		}
		f.w[n] = wt
		f.names = append(f.names, n)
	}
	sort.Strings(f.names)
	return f, nil
}

// Default returns a Fuser with the standard weights and thresholds.
func Default() *Fuser {
	f, err := NewFuser(DefaultWeights(), DefaultThresholds())
	if err != nil {
		panic(err)
	}
	return f
}

// Fuse combines the supplied parameters into an EMI result.
//
// Fuse never fails.  Missing parameters drop out and the remaining weights
// are renormalized.  Parameters without a weight are listed in Ignored.
func (f *Fuser) Fuse(params map[string]float64) Result {
	r := Result{Contributions: map[string]Contribution{}}
	var num, den float64
	for _, n := range f.names {
		v, ok := params[n]
		if !ok {
			r.Missing = append(r.Missing, n)
			continue
		}
		nv, _ := f.t[n].normalize(v) // validated by NewFuser
		num += f.w[n] * nv
		den += f.w[n]
		r.Contributions[n] = Contribution{Value: v, Normalized: nv, Weight: f.w[n]}
	}
	for n := range params {
		if _, ok := f.w[n]; !ok {
			r.Ignored = append(r.Ignored, n)
		}
	}
	sort.Strings(r.Ignored)
	if den > 0 {
		r.EMI = num / den
		for n, c := range r.Contributions {
			c.Weight /= den
			r.Contributions[n] = c
		}
	}
	if r.EMI > 1 {
		// roundoff
		r.EMI = 1
	}
	r.Band = BandFor(r.EMI)
	return r
}

// Weights returns a copy of the fuser's weights.
func (f *Fuser) Weights() Weights {
	w := Weights{}
	for n, v := range f.w {
		w[n] = v
	}
	return w
}

// EMI fuses params with the default weights and returns just the index.
func EMI(params map[string]float64) float64 {
	return Default().Fuse(params).EMI
}
