// Public domain.

package specimen

import (
	"fmt"

	"github.com/soniakeys/emi/calib"
	"github.com/soniakeys/emi/entry"
	"github.com/soniakeys/emi/exposure"
	"github.com/soniakeys/emi/fusion"
	"github.com/soniakeys/emi/hse"
	"github.com/soniakeys/emi/isotope"
	"github.com/soniakeys/emi/mineral"
	"github.com/soniakeys/emi/shock"
	"github.com/soniakeys/emi/weather"
)

// Unknown is the group of a specimen no engine could place.
const Unknown = "Unknown"

// Classification holds the result of every engine that ran, nil for the
// ones that did not, and the fused EMI.
type Classification struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	// Group is the MCC group, else the IAF group, else Unknown.
	Group string `json:"group"`
	// Confidence is the score of the engine that supplied Group.
	Confidence float64 `json:"confidence"`

	Mineral  *mineral.Result  `json:"mcc,omitempty"`
	Shock    *shock.Result    `json:"smg,omitempty"`
	Weather  *weather.Result  `json:"twi,omitempty"`
	Isotope  *isotope.Result  `json:"iaf,omitempty"`
	Entry    *entry.Result    `json:"atp,omitempty"`
	HSE      *hse.Result      `json:"pbdr,omitempty"`
	Exposure *exposure.Result `json:"cnea,omitempty"`

	EMI fusion.Result `json:"emi"`
}

// Parameters returns the EMI inputs of the engines that ran.  ATP is the
// peak temperature in °C and CNEA the fused exposure age in Ma, so both go
// through their own normalization ranges.
func (c *Classification) Parameters() map[string]float64 {
	p := map[string]float64{}
	if c.Mineral != nil {
		p[fusion.MCC] = c.Mineral.MCC
	}
	if c.Shock != nil {
		p[fusion.SMG] = c.Shock.SMG
	}
	if c.Weather != nil {
		p[fusion.TWI] = c.Weather.TWI
	}
	if c.Isotope != nil {
		p[fusion.IAF] = c.Isotope.IAF
	}
	if c.Entry != nil {
		p[fusion.ATP] = c.Entry.PeakTempC
	}
	if c.HSE != nil {
		p[fusion.PBDR] = c.HSE.PBDR
	}
	if c.Exposure != nil {
		p[fusion.CNEA] = c.Exposure.AgeMa
	}
	return p
}

// Classifier runs all engines with one calibration.  It is read-only after
// New and safe for concurrent use.
type Classifier struct {
	mineral  *mineral.Classifier
	shock    *shock.Estimator
	weather  *weather.Assessor
	isotope  *isotope.Classifier
	entry    *entry.Simulator
	hse      *hse.Estimator
	exposure *exposure.Engine
	fuser    *fusion.Fuser
}

// New validates t and builds a Classifier.
func New(t calib.Tables) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	f, err := t.Fuser()
	if err != nil {
		return nil, err
	}
	return &Classifier{
		mineral:  mineral.New(t.Mineral),
		shock:    shock.New(t.Shock),
		weather:  weather.New(t.Weather),
		isotope:  isotope.New(t.Isotope),
		entry:    entry.New(t.Entry, t.Materials),
		hse:      hse.New(t.HSE),
		exposure: exposure.New(t.Exposure),
		fuser:    f,
	}, nil
}

// Default returns a Classifier with the default calibration.
func Default() *Classifier {
	c, err := New(calib.Default())
	if err != nil {
		panic(err)
	}
	return c
}

// Simulator returns the entry simulator.
func (c *Classifier) Simulator() *entry.Simulator { return c.entry }

// Fuser returns the EMI fuser.
func (c *Classifier) Fuser() *fusion.Fuser { return c.fuser }

// Classify runs each engine whose domain has data.
//
// The only error is an entry trajectory the simulator rejects.  The
// returned Classification is complete without ATP in that case.
func (c *Classifier) Classify(r *Record) (*Classification, error) {
	cl := &Classification{ID: r.ID, Name: r.Name, Group: Unknown}
	if comp := mineral.FromMap(r.Mineral); comp != (mineral.Composition{}) {
		m := c.mineral.Classify(comp)
		cl.Mineral = &m
	}
	if len(r.Shock) > 0 {
		s := c.shock.Estimate(r.Shock)
		cl.Shock = &s
	}
	if len(r.Weathering) > 0 {
		w := c.weather.Assess(r.Weathering)
		cl.Weather = &w
	}
	if v, ok := isotope.FromMap(r.Isotopes); ok {
		i := c.isotope.Classify(v)
		cl.Isotope = &i
	}
	if len(r.HSE) > 0 {
		h := c.hse.Estimate(r.HSE)
		cl.HSE = &h
	}
	if len(r.Nuclides) > 0 {
		x := c.exposure.Compute(r.Nuclides)
		cl.Exposure = &x
	}
	var err error
	if r.Entry != nil {
		var a *entry.Result
		if a, err = c.entry.Simulate(r.Entry.Trajectory()); err == nil {
			a.Profile = nil
			cl.Entry = a
		} else {
			err = fmt.Errorf("specimen %q: %w", r.ID, err)
		}
	}

	switch {
	case cl.Mineral != nil && cl.Mineral.Group != Unknown:
		cl.Group, cl.Confidence = cl.Mineral.Group, cl.Mineral.MCC
	case cl.Isotope != nil && cl.Isotope.Group != Unknown:
		cl.Group, cl.Confidence = cl.Isotope.Group, cl.Isotope.IAF
	}
	cl.EMI = c.fuser.Fuse(cl.Parameters())
	return cl, err
}
