// Public domain.

// Package entry simulates the atmospheric entry of a meteoroid, producing
// the ablation thermal profile (ATP): peak surface temperature, heat flux,
// fusion crust thickness and airburst detection.
//
// The simulation is an explicit time-stepped integration.  Each step of
// length Δt the body moves v·Δt along a straight path inclined at the entry
// angle to the horizontal.  Velocity loses drag deceleration over that path
// length.  The surface temperature of a thermal layer as deep as the body's
// radius is advanced by explicit Euler steps of
//
//   dT/dt = (q - εσT⁴ - k(T-T₀)/r - L·ṁ(T)) / (ρ·cp·r)
//
// where q = ½·C_H·ρₐ·v³ is convective heating and ṁ(T) is the Hertz-Knudsen
// vaporization mass flux from a Clausius-Clapeyron vapor pressure.  The
// loss terms are stiff for small fast bodies, so a step is split into
// substeps short enough to keep the Euler update stable and the
// temperature change of each under Model.MaxStepK.  The run ends when the
// body reaches the ground, when it is below the ablation floor with
// temperature falling at least BurstWindow after the peak, or when the
// step budget is spent.
package entry

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/unit"
)

const (
	stefanBoltzmann = 5.67e-8 // W/(m²·K⁴)
	gasConstant     = 8.314   // J/(mol·K)
	joulesPerKT     = 4.184e12
	kelvin          = 273.15
)

// Model holds the integration constants.
type Model struct {
	// Dt is the step length in s.
	Dt       float64 `yaml:"dt" json:"dt"`
	MaxSteps int     `yaml:"max_steps" json:"max_steps"`
	// Altitudes in km.
	StartAltitude float64 `yaml:"start_altitude" json:"start_altitude"`
	AblationFloor float64 `yaml:"ablation_floor" json:"ablation_floor"`
	// T0 is the initial and ambient temperature, K.  Surface
	// temperature never falls below it.
	T0 float64 `yaml:"t0" json:"t0"`
	// MaxStepK bounds the temperature change of one substep, K.
	MaxStepK float64 `yaml:"max_step_k" json:"max_step_k"`
	// BurstWindow is the time in s integrated past the peak before the
	// run may end at the ablation floor, so breakup cooling can show.
	BurstWindow float64 `yaml:"burst_window" json:"burst_window"`
	// Dimensionless heat transfer and drag coefficients.
	HeatTransfer float64 `yaml:"heat_transfer" json:"heat_transfer"`
	Drag         float64 `yaml:"drag" json:"drag"`
	// Conductivity in W/(m·K), diffusivity in m²/s, latent heat in J/kg.
	Conductivity float64 `yaml:"conductivity" json:"conductivity"`
	Diffusivity  float64 `yaml:"diffusivity" json:"diffusivity"`
	LatentHeat   float64 `yaml:"latent_heat" json:"latent_heat"`
	// log10 vapor pressure in Pa is VaporA - VaporB/T.  MolarMass is of
	// the vapor, kg/mol.
	VaporA    float64 `yaml:"vapor_a" json:"vapor_a"`
	VaporB    float64 `yaml:"vapor_b" json:"vapor_b"`
	MolarMass float64 `yaml:"molar_mass" json:"molar_mass"`
	// PrecisionC is the reported uncertainty of peak temperature, °C.
	PrecisionC float64 `yaml:"precision_c" json:"precision_c"`
}

// DefaultModel returns the standard integration constants.
func DefaultModel() Model {
	return Model{
		Dt:            .01,
		MaxSteps:      20000,
		StartAltitude: 120,
		AblationFloor: 80,
		T0:            250,
		MaxStepK:      100,
		BurstWindow:   1,
		HeatTransfer:  .15,
		Drag:          1,
		Conductivity:  2,
		Diffusivity:   1e-6,
		LatentHeat:    8e6,
		VaporA:        10.1,
		VaporB:        13500,
		MolarMass:     .05,
		PrecisionC:    180,
	}
}

// Validate rejects constants the integration cannot run with.
func (m Model) Validate() error {
	switch {
	case !(m.Dt > 0):
		return fmt.Errorf("entry: dt %g must be positive", m.Dt)
	case m.MaxSteps <= 0:
		return fmt.Errorf("entry: max steps %d must be positive", m.MaxSteps)
	case !(m.StartAltitude > 0):
		return fmt.Errorf("entry: start altitude %g must be positive", m.StartAltitude)
	case !(m.T0 > 0):
		return fmt.Errorf("entry: T0 %g must be positive", m.T0)
	case !(m.MaxStepK > 0):
		return fmt.Errorf("entry: max step %g K must be positive", m.MaxStepK)
	case !(m.BurstWindow >= 0) || math.IsInf(m.BurstWindow, 1):
		return fmt.Errorf("entry: burst window %g s must be finite and non-negative", m.BurstWindow)
	case !(m.MolarMass > 0):
		return fmt.Errorf("entry: molar mass %g must be positive", m.MolarMass)
	}
	return nil
}

// Trajectory gives the entry conditions.
type Trajectory struct {
	Velocity    float64    // km/s at StartAltitude
	Angle       unit.Angle // to the horizontal
	Diameter    float64    // m
	Composition string     // material table key
	// StartAltitude in km.  Zero means the model default.
	StartAltitude float64
}

// ErrTrajectory is returned for entry conditions that cannot be simulated.
var ErrTrajectory = errors.New("invalid trajectory")

// Termination is the reason a simulation run ended.
type Termination string

const (
	AblationEnd Termination = "ablation-end"
	Ground      Termination = "ground"
	StepBudget  Termination = "step-budget"
)

// Sample is the state after one integration step.
type Sample struct {
	Time        float64 `json:"t"` // s
	Altitude    float64 `json:"h"` // km
	Velocity    float64 `json:"v"` // m/s
	Temperature float64 `json:"T"` // K
	HeatFlux    float64 `json:"q"` // MW/m²
}

// Airburst describes a detected atmospheric breakup.
type Airburst struct {
	Detected bool    `json:"detected"`
	Altitude float64 `json:"altitude_km"`
	// EnergyKT is at most the body's kinetic energy at entry.
	EnergyKT float64 `json:"energy_kt"`
	// Cooling is the fractional temperature drop after peak.
	Cooling float64 `json:"cooling"`
}

// Result is the ablation thermal profile of one run.
type Result struct {
	PeakTempC     float64     `json:"T_max_c"`
	PeakTempK     float64     `json:"T_max_k"`
	PrecisionC    float64     `json:"T_max_precision"`
	PeakHeatFlux  float64     `json:"heat_flux_peak_mw_m2"`
	TimeToPeak    float64     `json:"time_to_peak_s"`
	PeakAltitude  float64     `json:"peak_altitude_km"`
	FinalVelocity float64     `json:"final_velocity_m_s"`
	Steps         int         `json:"steps"`
	Termination   Termination `json:"termination"`
	CrustMM       float64     `json:"fusion_crust_mm"`
	Airburst      Airburst    `json:"airburst"`
	Composition   string      `json:"composition"`
	Profile       []Sample    `json:"profile,omitempty"`
}

// Simulator runs entry simulations with a fixed model and material table.
// It is read-only after New and safe for concurrent use.
type Simulator struct {
	model     Model
	materials Materials
}

// New returns a Simulator.
func New(m Model, mats Materials) *Simulator {
	return &Simulator{m, mats}
}

// Default returns a Simulator with the default model and materials.
func Default() *Simulator {
	return New(DefaultModel(), DefaultMaterials())
}

// Material returns the material simulated for composition c, following
// the same fallback as Simulate.
func (s *Simulator) Material(c string) (Material, bool) {
	return s.materials.Lookup(c)
}

// Simulate integrates one entry.
//
// Velocity and diameter must be positive and finite.  An unknown
// composition falls back to DefaultComposition, which is then reported in
// Result.Composition.
func (s *Simulator) Simulate(tr Trajectory) (*Result, error) {
	if !(tr.Velocity > 0) || math.IsInf(tr.Velocity, 1) ||
		!(tr.Diameter > 0) || math.IsInf(tr.Diameter, 1) ||
		math.IsNaN(tr.Angle.Rad()) {
		return nil, fmt.Errorf("entry: v=%g km/s d=%g m: %w",
			tr.Velocity, tr.Diameter, ErrTrajectory)
	}
	r := s.newRun(tr)
	r.integrate()
	return r.result(), nil
}

// run is the workspace of one simulation.  It is owned by a single
// Simulate call.
type run struct {
	m   Model
	mat Material
	c   string // composition used

	// geometry, constant over the run
	radius, mass, area, sinAngle float64
	h0, v0                       float64

	// state
	h, v, T float64
	profile []Sample
	stop    Termination

	// peak tracking.  peak indexes profile, -1 before any heating.
	peak int
	tMax float64
}

func (s *Simulator) newRun(tr Trajectory) *run {
	mat, found := s.materials.Lookup(tr.Composition)
	c := tr.Composition
	if !found {
		c = DefaultComposition
	}
	r := &run{
		m:      s.model,
		mat:    mat,
		c:      c,
		radius: tr.Diameter / 2,
		v:      tr.Velocity * 1000,
		v0:     tr.Velocity * 1000,
		T:      s.model.T0,
		tMax:   s.model.T0,
		peak:   -1,
	}
	r.h0 = s.model.StartAltitude
	if tr.StartAltitude > 0 {
		r.h0 = tr.StartAltitude
	}
	r.h = r.h0
	r.mass = mat.Density * 4 / 3 * math.Pi * r.radius * r.radius * r.radius
	r.area = math.Pi * r.radius * r.radius
	r.sinAngle = math.Abs(math.Sin(tr.Angle.Rad()))
	r.profile = make([]Sample, 0, 1024)
	return r
}

func (r *run) integrate() {
	r.stop = StepBudget
	for i := 1; i <= r.m.MaxSteps; i++ {
		if r.step(i) {
			return
		}
	}
}

// step advances one Δt and reports whether the run is over.
func (r *run) step(i int) bool {
	m := &r.m
	rhoA := AtmosphericDensity(r.h)
	ds := r.v * m.Dt // path length, m

	// drag, integrated over the path length
	drag := .5 * m.Drag * rhoA * r.v * r.v * r.area
	r.v = math.Max(1, r.v-drag/r.mass*ds/r.v)
	r.h -= ds * r.sinAngle / 1000
	if r.h <= 0 {
		r.h = 0
		r.stop = Ground
		return true
	}

	q := .5 * m.HeatTransfer * rhoA * r.v * r.v * r.v
	tPrev := r.T
	r.heat(q)

	r.profile = append(r.profile, Sample{
		Time:        float64(i) * m.Dt,
		Altitude:    r.h,
		Velocity:    r.v,
		Temperature: r.T,
		HeatFlux:    q / 1e6,
	})
	if r.T > r.tMax {
		r.tMax = r.T
		r.peak = len(r.profile) - 1
	}
	if r.h < m.AblationFloor && r.T < tPrev && r.pastWindow() {
		r.stop = AblationEnd
		return true
	}
	return false
}

// pastWindow reports whether BurstWindow has passed since the peak.
func (r *run) pastWindow() bool {
	if r.peak < 0 {
		return true
	}
	last := r.profile[len(r.profile)-1].Time
	return last-r.profile[r.peak].Time >= r.m.BurstWindow-r.m.Dt/2
}

// heat advances the surface temperature over one Δt under incoming flux q.
//
// Each substep is at most ρ·cp·r over the slope of the losses, which keeps
// explicit Euler from overshooting equilibrium, and changes T by at most
// MaxStepK.
func (r *run) heat(q float64) {
	m := &r.m
	c := r.mat.Density * r.mat.SpecificHeat * r.radius // J/(m²·K)
	for rem := m.Dt; rem > 0; {
		f, df := r.vaporFlux(r.T)
		t3 := r.T * r.T * r.T
		loss := stefanBoltzmann*r.mat.Emissivity*t3*r.T +
			m.Conductivity*(r.T-m.T0)/r.radius + m.LatentHeat*f
		slope := 4*stefanBoltzmann*r.mat.Emissivity*t3 +
			m.Conductivity/r.radius + m.LatentHeat*df
		net := q - loss
		h := rem
		if slope > 0 {
			h = math.Min(h, c/slope)
		}
		if net != 0 {
			h = math.Min(h, m.MaxStepK*c/math.Abs(net))
		}
		if h >= rem*(1-1e-9) {
			h = rem
		}
		r.T += net * h / c
		if !(r.T > m.T0) {
			r.T = m.T0
		}
		rem -= h
	}
}

// vaporFlux is the Hertz-Knudsen mass flux, kg/(m²·s), leaving a surface
// at temperature t, and its derivative in t floored at 0.
func (r *run) vaporFlux(t float64) (f, df float64) {
	if t <= 0 {
		return 0, 0
	}
	p := math.Pow(10, r.m.VaporA-r.m.VaporB/t)
	f = p * math.Sqrt(r.m.MolarMass/(2*math.Pi*gasConstant*t))
	// d ln f/dt = B·ln10/t² - 1/(2t)
	return f, f * math.Max(0, r.m.VaporB*math.Ln10/(t*t)-.5/t)
}

func (r *run) result() *Result {
	res := &Result{
		PeakTempK:     r.tMax,
		PeakTempC:     r.tMax - kelvin,
		PrecisionC:    r.m.PrecisionC,
		PeakAltitude:  r.h0,
		FinalVelocity: r.v,
		Steps:         len(r.profile),
		Termination:   r.stop,
		Composition:   r.c,
		Profile:       r.profile,
	}
	if r.peak >= 0 {
		p := r.profile[r.peak]
		res.PeakHeatFlux = p.HeatFlux
		res.TimeToPeak = p.Time
		res.PeakAltitude = p.Altitude
	}
	res.CrustMM = CrustThickness(r.tMax, res.TimeToPeak, r.m.Diffusivity)
	res.Airburst = DetectAirburst(r.profile, r.peak)
	if res.Airburst.Detected {
		ke := KineticEnergyKT(r.v0, 2*r.radius, r.mat.Density)
		res.Airburst.EnergyKT = math.Min(res.Airburst.EnergyKT, ke)
	}
	return res
}

// AtmosphericDensity returns air density in kg/m³ at altitude h km.
//
// Above 100 km it is an exponential with 8.5 km scale height, below a
// quartic falling to zero at 100 km.
func AtmosphericDensity(h float64) float64 {
	if h > 100 {
		return 1.225 * math.Exp(-h/8.5)
	}
	x := 1 - h/100
	return 1.225 * x * x * x * x
}
