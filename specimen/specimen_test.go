// Public domain.

package specimen_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/emi/calib"
	"github.com/soniakeys/emi/entry"
	"github.com/soniakeys/emi/fusion"
	"github.com/soniakeys/emi/specimen"
)

func full() *specimen.Record {
	return &specimen.Record{
		ID:   "S1",
		Name: "Test H5",
		Mineral: map[string]float64{
			"fa": 18.5, "fs": 16.5, "d17O": .75,
		},
		Shock: map[string]float64{"olivine_planar": .2, "porosity": .3},
		Weathering: map[string]float64{
			"metal_oxidation": .05,
			"phyllosilicate":  .02,
			"be_ne_deviation": .01,
			"fe_ni_deviation": .01,
		},
		Isotopes: map[string]float64{"e50Ti": .5, "e54Cr": .3},
		HSE:      map[string]any{"os": 486., "ir": 481., "au": "trace"},
		Nuclides: map[string]float64{"he3": 30},
		Entry: &specimen.Entry{
			Velocity: 18.6, AngleDeg: 18.5, Diameter: 19, Composition: "LL5",
		},
	}
}

func ExampleClassifier_Classify() {
	c := specimen.Default()
	cl, err := c.Classify(&specimen.Record{
		ID:      "H-1",
		Mineral: map[string]float64{"fa": 18.5, "fs": 16.5, "d17O": .75},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s %.2f EMI %.2f %s\n", cl.Group, cl.Confidence, cl.EMI.EMI, cl.EMI.Band.Label)
	// Output:
	// H 1.00 EMI 1.00 UNGROUPED CANDIDATE
}

func TestClassifyFull(t *testing.T) {
	c := specimen.Default()
	cl, err := c.Classify(full())
	require.NoError(t, err)
	assert.Equal(t, "S1", cl.ID)
	assert.Equal(t, "H", cl.Group)
	assert.Greater(t, cl.Confidence, .8)
	require.NotNil(t, cl.Mineral)
	require.NotNil(t, cl.Shock)
	require.NotNil(t, cl.Weather)
	require.NotNil(t, cl.Isotope)
	require.NotNil(t, cl.HSE)
	require.NotNil(t, cl.Exposure)
	require.NotNil(t, cl.Entry)
	assert.Nil(t, cl.Entry.Profile)
	assert.InDelta(t, 0, cl.HSE.PBDR, .05)
	assert.Len(t, cl.HSE.Excluded, 1)
	assert.InDelta(t, 20, cl.Exposure.AgeMa, .1)

	p := cl.Parameters()
	assert.Len(t, p, 7)
	assert.Equal(t, cl.Entry.PeakTempC, p[fusion.ATP])
	assert.Equal(t, cl.Exposure.AgeMa, p[fusion.CNEA])
	assert.Empty(t, cl.EMI.Missing)
	assert.GreaterOrEqual(t, cl.EMI.EMI, 0.)
	assert.LessOrEqual(t, cl.EMI.EMI, 1.)
	assert.Equal(t, fusion.Default().Fuse(p), cl.EMI)
}

func TestClassifyEmpty(t *testing.T) {
	cl, err := specimen.Default().Classify(&specimen.Record{ID: "E"})
	require.NoError(t, err)
	assert.Equal(t, specimen.Unknown, cl.Group)
	assert.Equal(t, 0., cl.Confidence)
	assert.Equal(t, 0., cl.EMI.EMI)
	assert.Equal(t, "UNAMBIGUOUS", cl.EMI.Band.Label)
	assert.Nil(t, cl.Mineral)
	assert.Nil(t, cl.Entry)
	assert.Empty(t, cl.Parameters())
}

func TestGroupFromIsotopes(t *testing.T) {
	cl, err := specimen.Default().Classify(&specimen.Record{
		Isotopes: map[string]float64{"e50Ti": 2.3, "e54Cr": 1.7, "e96Mo": -1},
	})
	require.NoError(t, err)
	require.NotNil(t, cl.Isotope)
	assert.Equal(t, cl.Isotope.Group, cl.Group)
	assert.Equal(t, cl.Isotope.IAF, cl.Confidence)
	assert.Equal(t, []string{"atp", "cnea", "mcc", "pbdr", "smg", "twi"}, cl.EMI.Missing)
}

func TestInvalidEntry(t *testing.T) {
	r := full()
	r.Entry.Velocity = 0
	cl, err := specimen.Default().Classify(r)
	assert.ErrorIs(t, err, entry.ErrTrajectory)
	require.NotNil(t, cl)
	assert.Nil(t, cl.Entry)
	assert.Equal(t, "H", cl.Group)
	assert.Equal(t, []string{"atp"}, cl.EMI.Missing)
}

func TestNewInvalid(t *testing.T) {
	tb := calib.Default()
	tb.Thresholds[fusion.MCC] = fusion.Threshold{Min: 1, Max: 0}
	_, err := specimen.New(tb)
	assert.ErrorIs(t, err, fusion.ErrDegenerateThreshold)
}

func TestDecode(t *testing.T) {
	recs, err := specimen.Decode(strings.NewReader(`
  [{"id": "a", "mineral": {"ni": 8.2}}, {"id": "b", "hse": {"os": "x"}}]`),
		specimen.JSON)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 8.2, recs[0].Mineral["ni"])
	assert.Equal(t, "x", recs[1].HSE["os"])

	recs, err = specimen.Decode(strings.NewReader(`{"id": "c", "mass_g": 12.5}`), specimen.JSON)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 12.5, recs[0].MassG)

	recs, err = specimen.Decode(strings.NewReader(`
id: d
recovery_year: 1998
entry: {velocity: 18.6, angle: 18.5, diameter: 19}
hse:
  os: 486
  ir: n/a
`), specimen.YAML)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1998, recs[0].RecoveryYear)
	assert.Equal(t, 19., recs[0].Entry.Diameter)
	assert.Equal(t, 486, recs[0].HSE["os"])

	recs, err = specimen.Decode(strings.NewReader("- id: e\n- id: f\n"), specimen.YAML)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = specimen.Decode(strings.NewReader("just a string"), specimen.YAML)
	assert.Error(t, err)
	_, err = specimen.Decode(strings.NewReader("{"), specimen.JSON)
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "s.yml")
	require.NoError(t, os.WriteFile(fn, []byte("id: y\nname: Yaml\n"), 0o644))
	recs, err := specimen.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "Yaml", recs[0].Name)

	assert.Equal(t, specimen.JSON, specimen.FormatOf("x.json"))
	assert.Equal(t, specimen.YAML, specimen.FormatOf("X.YAML"))

	_, err = specimen.ReadFile(filepath.Join(dir, "none.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFields(t *testing.T) {
	r := specimen.Record{RecoveryYear: 2003, MassG: 41, Repository: "ANSMET"}
	v, ok := r.Field("recovery_year")
	assert.True(t, ok)
	assert.Equal(t, 2003., v)
	_, ok = (&specimen.Record{}).Field("mass_g")
	assert.False(t, ok)
	s, ok := r.Text("repository")
	assert.True(t, ok)
	assert.Equal(t, "ANSMET", s)
	_, ok = r.Text("bogus")
	assert.False(t, ok)
}
