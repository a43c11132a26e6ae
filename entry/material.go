// Public domain.

package entry

import (
	"fmt"
	"strings"
)

// Material holds the bulk thermal properties of a meteoroid.
type Material struct {
	// kg/m³
	Density float64 `yaml:"density" json:"density"`
	// J/(kg·K)
	SpecificHeat float64 `yaml:"specific_heat" json:"specific_heat"`
	Emissivity   float64 `yaml:"emissivity" json:"emissivity"`
}

// Materials is a composition keyed material table.  Lookup is case
// insensitive.
type Materials map[string]Material

// DefaultComposition is used when a composition is empty or not in the
// table.
const DefaultComposition = "LL5"

// DefaultMaterials returns the standard material table.
func DefaultMaterials() Materials {
	oc := func(rho float64) Material { return Material{rho, 950, .88} }
	return Materials{
		"H":            oc(3400),
		"L":            oc(3350),
		"LL":           oc(3300),
		"H5":           oc(3400),
		"L5":           oc(3350),
		"LL5":          oc(3300),
		"iron":         {7800, 450, .75},
		"stony-iron":   {5500, 700, .80},
		"carbonaceous": {2200, 1200, .90},
	}
}

// Lookup returns the material for composition c.  If c is not found the
// default composition is returned with found false.
func (m Materials) Lookup(c string) (mat Material, found bool) {
	if mat, ok := m[c]; ok {
		return mat, true
	}
	for k, mat := range m {
		if strings.EqualFold(k, c) {
			return mat, true
		}
	}
	if mat, ok := m[DefaultComposition]; ok {
		return mat, false
	}
	return DefaultMaterials()[DefaultComposition], false
}

// Validate checks that every material is physical.
func (m Materials) Validate() error {
	for k, mat := range m {
		if !(mat.Density > 0) || !(mat.SpecificHeat > 0) ||
			!(mat.Emissivity > 0) || mat.Emissivity > 1 {
			return fmt.Errorf("entry: material %s: %+v not physical", k, mat)
		}
	}
	return nil
}
