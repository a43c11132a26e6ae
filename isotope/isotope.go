// Public domain.

// Package isotope computes the isotopic anomaly fingerprint (IAF), the
// match of a specimen's nucleosynthetic anomaly vector to the nearest
// group centroid in a 7-dimensional ε space.
//
// The score is a Gaussian match,
//
//   IAF = exp(-d² / 2σ²)
//
// with d the distance to the nearest centroid and σ that group's
// intra-group dispersion.  It lies in (0,1] but is not a probability.
package isotope

import (
	"fmt"
	"math"

	"github.com/soniakeys/emi/distance"
)

// Dim is the dimension of the anomaly space.
const Dim = 7

// Anomaly names, ASCII and Unicode forms.  Index i of each gives the
// component i of an anomaly vector.
var (
	Names   = [Dim]string{"e50Ti", "e54Cr", "e96Mo", "e100Mo", "e92Ru", "e137Ba", "e142Nd"}
	Symbols = [Dim]string{"ε⁵⁰Ti", "ε⁵⁴Cr", "ε⁹⁶Mo", "ε¹⁰⁰Mo", "ε⁹²Ru", "ε¹³⁷Ba", "ε¹⁴²Nd"}
)

var index = func() map[string]int {
	m := map[string]int{}
	for i := range Names {
		m[Names[i]] = i
		m[Symbols[i]] = i
	}
	return m
}()

// Vector is an anomaly vector in ε units.
type Vector [Dim]float64

// FromMap builds a Vector from named anomalies.  Either name form is
// accepted.  Absent components are zero.  ok is false if no key was
// recognized.
func FromMap(m map[string]float64) (v Vector, ok bool) {
	for k, x := range m {
		i, found := index[k]
		if !found || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		v[i] = x
		ok = true
	}
	return
}

// Group is a group centroid and its dispersion σ.
type Group struct {
	Name     string    `yaml:"name" json:"name"`
	Centroid []float64 `yaml:"centroid" json:"centroid"`
	Sigma    float64   `yaml:"sigma" json:"sigma"`
}

// Metric selects the distance used to find the nearest group.
type Metric int

const (
	Euclidean Metric = iota
	// Mahalanobis with diagonal covariance σ²·I of each group.
	DiagonalMahalanobis
)

// Tables is the IAF calibration.
type Tables struct {
	Groups []Group `yaml:"groups" json:"groups"`
	// OutlierThreshold is the IAF below which a specimen is flagged.
	OutlierThreshold float64 `yaml:"outlier_threshold" json:"outlier_threshold"`
	// DefaultSigma is used for a group with no positive Sigma.
	DefaultSigma float64 `yaml:"default_sigma" json:"default_sigma"`
}

// DefaultTables returns the standard 18 group calibration.
func DefaultTables() Tables {
	g := func(name string, sigma float64, c ...float64) Group {
		return Group{name, c, sigma}
	}
	return Tables{
		Groups: []Group{
			g("CI", .5, 0, 0, 0, 0, 0, 0, 0),
			g("CM", .6, 1.2, .88, -.3, -.2, .1, -.1, 0),
			g("CR", .7, 2.1, 1.53, -.8, -.5, .3, -.2, -.1),
			g("CO", .6, 1.8, 1.2, -.5, -.3, .2, -.15, -.05),
			g("CV", .6, 1.5, 1.05, -.4, -.25, .15, -.12, -.03),
			g("CK", .6, 1.3, .95, -.35, -.22, .12, -.11, -.02),
			g("CH", .8, 2.2, 1.6, -.9, -.55, .35, -.22, -.12),
			g("CB", .8, 2.3, 1.7, -1, -.6, .4, -.25, -.15),
			g("H", .4, .5, .3, .1, .05, .02, .01, 0),
			g("L", .4, .6, .4, .15, .08, .03, .02, 0),
			g("LL", .4, .7, .5, .2, .1, .04, .03, 0),
			g("EH", .3, -.2, -.1, 0, 0, 0, 0, 0),
			g("EL", .3, -.15, -.05, 0, 0, 0, 0, 0),
			g("HED", .4, .4, .25, .05, .02, .01, 0, 0),
			g("SNC", .4, .3, .2, .03, .01, 0, 0, 0),
			g("LUN", .3, .2, .15, .02, .01, 0, 0, 0),
			g("URE", .5, .8, .6, .25, .15, .05, .04, .02),
			g("AUB", .3, -.1, -.05, 0, 0, 0, 0, 0),
		},
		OutlierThreshold: .3,
		DefaultSigma:     .5,
	}
}

// Validate checks centroid dimensions.
func (t Tables) Validate() error {
	if len(t.Groups) == 0 {
		return fmt.Errorf("isotope: no groups")
	}
	for _, g := range t.Groups {
		if len(g.Centroid) != Dim {
			return fmt.Errorf("isotope: group %s: centroid has %d components, want %d",
				g.Name, len(g.Centroid), Dim)
		}
	}
	if !(t.DefaultSigma > 0) {
		return fmt.Errorf("isotope: default sigma %g must be positive", t.DefaultSigma)
	}
	return nil
}

// Result of IAF classification.
type Result struct {
	IAF       float64            `json:"iaf"`
	Group     string             `json:"group"`
	Distance  float64            `json:"distance"`
	Sigma     float64            `json:"sigma"`
	Outlier   bool               `json:"is_outlier"`
	Centroid  []float64          `json:"centroid,omitempty"`
	Distances map[string]float64 `json:"all_distances,omitempty"`
}

// Classifier finds nearest isotope groups.  It is read-only after New.
type Classifier struct {
	t      Tables
	metric Metric
}

// New returns a Classifier using Euclidean distance.
func New(t Tables) *Classifier {
	return &Classifier{t: t}
}

// WithMetric returns a copy of c using metric m.
func (c *Classifier) WithMetric(m Metric) *Classifier {
	return &Classifier{t: c.t, metric: m}
}

func (c *Classifier) sigma(g Group) float64 {
	if g.Sigma > 0 {
		return g.Sigma
	}
	return c.t.DefaultSigma
}

// Classify scores v against every group.
//
// The IAF score is computed from the Euclidean distance to the nearest
// group whichever metric selected it; with DiagonalMahalanobis the
// reported Distance is still Euclidean, so IAF keeps the same meaning.
func (c *Classifier) Classify(v Vector) Result {
	r := Result{Distances: map[string]float64{}}
	best := math.Inf(1)
	for _, g := range c.t.Groups {
		if len(g.Centroid) != Dim {
			continue
		}
		e := distance.Euclidean(v[:], g.Centroid)
		r.Distances[g.Name] = e
		d := e
		if c.metric == DiagonalMahalanobis {
			d = distance.DiagonalMahalanobis(v[:], g.Centroid, c.sigma(g)).Distance
		}
		if d < best {
			best = d
			r.Group = g.Name
			r.Distance = e
			r.Sigma = c.sigma(g)
			r.Centroid = append([]float64{}, g.Centroid...)
		}
	}
	if r.Group == "" {
		r.Group = "Unknown"
		return r
	}
	r.IAF = math.Exp(-r.Distance * r.Distance / (2 * r.Sigma * r.Sigma))
	r.Outlier = r.IAF < c.t.OutlierThreshold
	return r
}

// Recommendation given when a presolar signature is detected.
const Recommendation = "NanoSIMS analysis recommended"

// Detection reports a possible presolar grain signature.
type Detection struct {
	Detected       bool    `json:"presolar_detected"`
	IAF            float64 `json:"iaf"`
	Group          string  `json:"nearest_group"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// DetectPresolar flags v when its IAF falls below threshold.
//
// When detected, Confidence is 1 - IAF, the confidence in the anomaly.
// Otherwise it is IAF, the confidence in the group match.
func (c *Classifier) DetectPresolar(v Vector, threshold float64) Detection {
	r := c.Classify(v)
	d := Detection{IAF: r.IAF, Group: r.Group}
	if r.IAF < threshold {
		d.Detected = true
		d.Confidence = 1 - r.IAF
		d.Recommendation = Recommendation
	} else {
		d.Confidence = r.IAF
	}
	return d
}

// Epsilon converts a measured isotope ratio to ε units, parts per ten
// thousand deviation from the standard ratio.
func Epsilon(sample, standard float64) float64 {
	return (sample/standard - 1) * 1e4
}
