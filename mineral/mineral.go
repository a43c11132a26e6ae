// Public domain.

// Package mineral computes the mineralogical classification coefficient
// (MCC), the match of a specimen's composition to the nearest meteorite
// group.
//
// Stony specimens are placed in (Fa, Fs, Δ¹⁷O) space, olivine fayalite
// mol%, pyroxene ferrosilite mol% and oxygen isotope Δ¹⁷O in ‰, and
// compared to chondrite group centroids by Mahalanobis distance.  Iron
// specimens are compared by absolute difference in bulk Ni wt%.  Either way
//
//   MCC = max(0, 1 - d/DMax)
//
// with the same DMax for both modes even though the units differ.
package mineral

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/soniakeys/emi/distance"
)

// Mode distinguishes the two classification spaces.
type Mode string

const (
	Stony Mode = "stony"
	Iron  Mode = "iron"
)

// ErrUnknownGroup is returned by ClassifyGroup for a group not in the
// tables for the specimen's mode.
var ErrUnknownGroup = errors.New("unknown group")

// StonyGroup is a chondrite group centroid.  Cov, if present, is the 3×3
// covariance of (Fa, Fs, Δ¹⁷O) within the group.
type StonyGroup struct {
	Name string      `yaml:"name" json:"name"`
	Fa   float64     `yaml:"fa" json:"fa"`
	Fs   float64     `yaml:"fs" json:"fs"`
	D17O float64     `yaml:"d17O" json:"d17O"`
	Cov  [][]float64 `yaml:"cov,omitempty" json:"cov,omitempty"`
}

// IronGroup is an iron group reference Ni content, wt%.
type IronGroup struct {
	Name string  `yaml:"name" json:"name"`
	Ni   float64 `yaml:"ni" json:"ni"`
}

// Tables is the MCC calibration.  Group order matters only for ties; the
// earlier group wins.
type Tables struct {
	Stony []StonyGroup `yaml:"stony" json:"stony"`
	Iron  []IronGroup  `yaml:"iron" json:"iron"`
	// DMax is the distance at which MCC reaches zero.
	DMax float64 `yaml:"dmax" json:"dmax"`
	// DefaultVariance scales the identity covariance used for groups
	// with no Cov.
	DefaultVariance float64 `yaml:"default_variance" json:"default_variance"`
}

// DefaultTables returns the standard MCC calibration.
func DefaultTables() Tables {
	return Tables{
		Stony: []StonyGroup{
			{"H", 18.5, 16.5, .75, [][]float64{
				{2.5, 1.2, .1},
				{1.2, 2.3, .08},
				{.1, .08, .04}}},
			{"L", 24.5, 21, 1.05, [][]float64{
				{2.8, 1.4, .12},
				{1.4, 2.6, .1},
				{.12, .1, .05}}},
			{"LL", 29, 24.5, 1.25, [][]float64{
				{3, 1.5, .15},
				{1.5, 2.8, .12},
				{.15, .12, .06}}},
			{"CO", 12, 3.5, -4.5, nil},
			{"CV", 8.5, 2, -3.8, nil},
			{"CR", 3.5, 2, -1.5, nil},
		},
		Iron: []IronGroup{
			{"IAB", 8.5},
			{"IIAB", 5.6},
			{"IIIAB", 8.2},
			{"IVA", 8},
			{"IVB", 16.5},
		},
		DMax:            5,
		DefaultVariance: 2,
	}
}

// Validate checks table shapes.
func (t Tables) Validate() error {
	if !(t.DMax > 0) {
		return fmt.Errorf("mineral: dmax %g must be positive", t.DMax)
	}
	if !(t.DefaultVariance > 0) {
		return fmt.Errorf("mineral: default variance %g must be positive",
			t.DefaultVariance)
	}
	for _, g := range t.Stony {
		if g.Cov == nil {
			continue
		}
		if distance.Covariance(g.Cov) == nil || len(g.Cov) != 3 {
			return fmt.Errorf("mineral: group %s: covariance must be 3x3", g.Name)
		}
	}
	return nil
}

// Composition is one specimen's mineral data.  Nil fields are absent.
type Composition struct {
	Fa   *float64 `yaml:"fa,omitempty" json:"fa,omitempty"`
	Fs   *float64 `yaml:"fs,omitempty" json:"fs,omitempty"`
	D17O *float64 `yaml:"d17O,omitempty" json:"d17O,omitempty"`
	Ni   *float64 `yaml:"ni,omitempty" json:"ni,omitempty"`
}

// FromMap builds a Composition from named values.  Keys are fa, fs, d17O
// and ni, matched without regard to case.  NaN values are treated as absent.
func FromMap(m map[string]float64) Composition {
	var c Composition
	for k, v := range m {
		if math.IsNaN(v) {
			continue
		}
		v := v
		switch strings.ToLower(k) {
		case "fa":
			c.Fa = &v
		case "fs":
			c.Fs = &v
		case "d17o":
			c.D17O = &v
		case "ni":
			c.Ni = &v
		}
	}
	return c
}

func (c Composition) empty() bool {
	return c.Fa == nil && c.Fs == nil && c.D17O == nil && c.Ni == nil
}

// Result of MCC classification.
type Result struct {
	MCC      float64   `json:"mcc"`
	Group    string    `json:"group"`
	Distance float64   `json:"distance"`
	Mode     Mode      `json:"mode"`
	Centroid []float64 `json:"centroid,omitempty"`
	// Fallback is set if Euclidean distance replaced Mahalanobis for the
	// winning group.
	Fallback  bool               `json:"fallback,omitempty"`
	Distances map[string]float64 `json:"distances,omitempty"`
}

// Classifier holds prepared tables.  It is read-only after New and safe
// for concurrent use.
type Classifier struct {
	dMax  float64
	stony []stonyRef
	iron  []IronGroup
}

type stonyRef struct {
	name string
	mu   []float64
	cov  *mat.SymDense
}

// New prepares a Classifier.  Tables should already be validated; a
// covariance of the wrong shape is replaced by the default.
func New(t Tables) *Classifier {
	c := &Classifier{dMax: t.DMax, iron: append([]IronGroup{}, t.Iron...)}
	for _, g := range t.Stony {
		cov := distance.Covariance(g.Cov)
		if cov == nil || cov.SymmetricDim() != 3 {
			cov = distance.ScaledIdentity(3, t.DefaultVariance)
		}
		c.stony = append(c.stony, stonyRef{
			name: g.Name,
			mu:   []float64{g.Fa, g.Fs, g.D17O},
			cov:  cov,
		})
	}
	return c
}

// Classify finds the nearest group over all groups of the specimen's mode.
//
// Iron mode is selected by the presence of Ni.  In stony mode absent Fa,
// Fs or Δ¹⁷O are taken as zero.  An empty composition gives MCC 0 and
// group "Unknown".
func (c *Classifier) Classify(comp Composition) Result {
	r, _ := c.classify(comp, "")
	return r
}

// ClassifyGroup scores the specimen against the single named group.
func (c *Classifier) ClassifyGroup(comp Composition, group string) (Result, error) {
	if group == "" {
		return Result{}, fmt.Errorf("mineral: empty group: %w", ErrUnknownGroup)
	}
	return c.classify(comp, group)
}

func (c *Classifier) classify(comp Composition, only string) (Result, error) {
	if comp.empty() {
		return Result{Group: "Unknown", Mode: Stony}, nil
	}
	if comp.Ni != nil && !math.IsNaN(*comp.Ni) {
		return c.classifyIron(*comp.Ni, only)
	}
	return c.classifyStony(comp, only)
}

func (c *Classifier) classifyStony(comp Composition, only string) (Result, error) {
	x := []float64{val(comp.Fa), val(comp.Fs), val(comp.D17O)}
	r := Result{
		Mode:      Stony,
		Distance:  math.Inf(1),
		Distances: map[string]float64{},
	}
	for _, g := range c.stony {
		if only != "" && g.name != only {
			continue
		}
		d := distance.Mahalanobis(x, g.mu, g.cov)
		r.Distances[g.name] = d.Distance
		if d.Distance < r.Distance {
			r.Distance = d.Distance
			r.Group = g.name
			r.Centroid = append([]float64{}, g.mu...)
			r.Fallback = d.Fallback
		}
	}
	if r.Group == "" {
		return Result{}, fmt.Errorf("mineral: stony group %q: %w", only, ErrUnknownGroup)
	}
	r.MCC = c.score(r.Distance)
	return r, nil
}

func (c *Classifier) classifyIron(ni float64, only string) (Result, error) {
	r := Result{
		Mode:      Iron,
		Distance:  math.Inf(1),
		Distances: map[string]float64{},
	}
	for _, g := range c.iron {
		if only != "" && g.Name != only {
			continue
		}
		d := math.Abs(ni - g.Ni)
		r.Distances[g.Name] = d
		if d < r.Distance {
			r.Distance = d
			r.Group = g.Name
			r.Centroid = []float64{g.Ni}
		}
	}
	if r.Group == "" {
		return Result{}, fmt.Errorf("mineral: iron group %q: %w", only, ErrUnknownGroup)
	}
	r.MCC = c.score(r.Distance)
	return r, nil
}

func (c *Classifier) score(d float64) float64 {
	return math.Max(0, 1-d/c.dMax)
}

func val(p *float64) float64 {
	if p == nil || math.IsNaN(*p) {
		return 0
	}
	return *p
}
