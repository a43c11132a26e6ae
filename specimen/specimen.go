// Public domain.

// Package specimen runs the parameter engines on one specimen record and
// fuses their scores into an EMI classification.
package specimen

import (
	"github.com/soniakeys/unit"

	"github.com/soniakeys/emi/entry"
)

// Record is one specimen: catalog metadata plus measurements grouped by
// analytical domain.  A nil or empty domain map means the domain was not
// measured.
type Record struct {
	ID           string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string  `json:"name,omitempty" yaml:"name,omitempty"`
	Collection   string  `json:"collection,omitempty" yaml:"collection,omitempty"`
	Repository   string  `json:"repository,omitempty" yaml:"repository,omitempty"`
	Country      string  `json:"country,omitempty" yaml:"country,omitempty"`
	Group        string  `json:"group,omitempty" yaml:"group,omitempty"`
	RecoveryYear int     `json:"recovery_year,omitempty" yaml:"recovery_year,omitempty"`
	RecoveryDate string  `json:"recovery_date,omitempty" yaml:"recovery_date,omitempty"`
	MassG        float64 `json:"mass_g,omitempty" yaml:"mass_g,omitempty"`

	// fa, fs, d17O, ni
	Mineral map[string]float64 `json:"mineral,omitempty" yaml:"mineral,omitempty"`
	// shock indicators in [0,1]
	Shock map[string]float64 `json:"shock,omitempty" yaml:"shock,omitempty"`
	// weathering indicators in [0,1]
	Weathering map[string]float64 `json:"weathering,omitempty" yaml:"weathering,omitempty"`
	// ε anomalies
	Isotopes map[string]float64 `json:"isotopes,omitempty" yaml:"isotopes,omitempty"`
	// HSE abundances in ng/g.  Values may be anything a decoder produces;
	// non-numeric ones are excluded.
	HSE map[string]any `json:"hse,omitempty" yaml:"hse,omitempty"`
	// cosmogenic nuclide concentrations
	Nuclides map[string]float64 `json:"nuclides,omitempty" yaml:"nuclides,omitempty"`
	Entry    *Entry             `json:"entry,omitempty" yaml:"entry,omitempty"`

	References []string `json:"references,omitempty" yaml:"references,omitempty"`
}

// Entry is an observed entry trajectory in serializable form.
type Entry struct {
	Velocity    float64 `json:"velocity" yaml:"velocity"` // km/s
	AngleDeg    float64 `json:"angle" yaml:"angle"`
	Diameter    float64 `json:"diameter" yaml:"diameter"` // m
	Composition string  `json:"composition,omitempty" yaml:"composition,omitempty"`
	// km, 0 for the model default
	StartAltitude float64 `json:"altitude_start,omitempty" yaml:"altitude_start,omitempty"`
}

// Trajectory converts e for the entry simulator.
func (e Entry) Trajectory() entry.Trajectory {
	return entry.Trajectory{
		Velocity:      e.Velocity,
		Angle:         unit.AngleFromDeg(e.AngleDeg),
		Diameter:      e.Diameter,
		Composition:   e.Composition,
		StartAltitude: e.StartAltitude,
	}
}

// Field returns a numeric metadata field by name for range queries.  Only
// recovery_year and mass_g are numeric.
func (r *Record) Field(name string) (float64, bool) {
	switch name {
	case "recovery_year", "year":
		return float64(r.RecoveryYear), r.RecoveryYear != 0
	case "mass_g", "mass":
		return r.MassG, r.MassG != 0
	}
	return 0, false
}

// Text returns a string metadata field by name for exact match queries.
func (r *Record) Text(name string) (string, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "name":
		return r.Name, true
	case "collection":
		return r.Collection, true
	case "repository":
		return r.Repository, true
	case "country":
		return r.Country, true
	case "group":
		return r.Group, true
	case "recovery_date":
		return r.RecoveryDate, true
	}
	return "", false
}
