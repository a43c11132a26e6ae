// Public domain.

package entry

import "math"

// Airburst detection thresholds.
const (
	// BurstCooling is the fractional post-peak temperature drop taken as
	// breakup.
	BurstCooling = .3
	// BurstMinAltitude in km.  Rapid cooling lower than this is taken as
	// the end of flight, not breakup.
	BurstMinAltitude = 20
)

// CrustThickness estimates fusion crust thickness in mm from a thermal
// skin depth √(κ·t) over heating time t in s.  The crust is capped at 2 mm
// for peak temperatures above 3000 K and 1 mm otherwise.
func CrustThickness(tMaxK, t, diffusivity float64) float64 {
	if !(t > 0) || !(diffusivity > 0) {
		return 0
	}
	skin := math.Sqrt(diffusivity*t) * 1000
	if tMaxK > 3000 {
		return math.Min(2, 1.5*skin)
	}
	return math.Min(1, skin)
}

// DetectAirburst looks for a rapid temperature drop after the peak sample
// of a profile.
//
// The cooling fraction is (T_peak - T_min)/T_peak over the samples after
// peak.  A fraction above BurstCooling with the peak above
// BurstMinAltitude is a detection.  peak < 0 means no peak.
func DetectAirburst(profile []Sample, peak int) Airburst {
	if peak < 0 || peak >= len(profile) {
		return Airburst{}
	}
	p := profile[peak]
	if !(p.Temperature > 0) {
		return Airburst{}
	}
	tMin := p.Temperature
	for _, s := range profile[peak+1:] {
		if s.Temperature < tMin {
			tMin = s.Temperature
		}
	}
	a := Airburst{Cooling: (p.Temperature - tMin) / p.Temperature}
	if a.Cooling > BurstCooling && p.Altitude > BurstMinAltitude {
		a.Detected = true
		a.Altitude = p.Altitude
		a.EnergyKT = AirburstEnergy(p.Temperature, p.Altitude)
	}
	return a
}

// AirburstEnergy is a coarse step estimate of airburst energy in kt TNT
// from peak temperature in K and burst altitude in km, scaled from a
// 500 kt burst near 23 km.
func AirburstEnergy(tPeakK, altitude float64) float64 {
	switch {
	case tPeakK > 4500 && altitude > 20:
		return 500
	case tPeakK > 4000:
		return 100
	case tPeakK > 3500:
		return 10
	}
	return 1
}

// KineticEnergyKT returns the kinetic energy in kt TNT of a sphere of
// diameter d m and density rho kg/m³ moving at v m/s.
func KineticEnergyKT(v, d, rho float64) float64 {
	r := d / 2
	m := rho * 4 / 3 * math.Pi * r * r * r
	return .5 * m * v * v / joulesPerKT
}

// EstimateAirburstAltitude estimates burst altitude in km from entry
// kinetic energy, with v in m/s, d in m and rho in kg/m³.
//
// Below 10 kt the body is taken to reach the surface and 0 is returned.
// Up to 1 Mt altitude scales as E^⅓ from 23 km at 500 kt.  Larger bodies
// burst at 15 km.
func EstimateAirburstAltitude(v, d, rho float64) float64 {
	e := KineticEnergyKT(v, d, rho)
	switch {
	case e < 10:
		return 0
	case e < 1000:
		return 23 * math.Cbrt(e/500)
	}
	return 15
}
