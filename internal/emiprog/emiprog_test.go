// Public domain.

package emiprog_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/emi/fireball"
	"github.com/soniakeys/emi/internal/emiprog"
	"github.com/soniakeys/emi/registry"
	"github.com/soniakeys/emi/specimen"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := emiprog.NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeJSON(t *testing.T, fn string, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fn, b, 0o644))
	return fn
}

func stony(id string, fa, fs, d17O float64) specimen.Record {
	return specimen.Record{
		ID:      id,
		Name:    "specimen " + id,
		Mineral: map[string]float64{"fa": fa, "fs": fs, "d17O": d17O},
	}
}

// noATP is a stony specimen whose entry trajectory the simulator rejects.
func noATP(id string, fa, fs, d17O float64) specimen.Record {
	r := stony(id, fa, fs, d17O)
	r.Entry = &specimen.Entry{Velocity: 0, Diameter: 1}
	return r
}

func TestCalculate(t *testing.T) {
	out, err := run(t, "calculate", "--mcc", "0.3", "--smg", "0.2", "--atp", "3000")
	require.NoError(t, err)
	assert.Equal(t, `EMI 0.302 HIGH CONFIDENCE
Action: Standard expert review
  atp       3000  normalized 0.500  weight 0.182
  mcc        0.3  normalized 0.300  weight 0.473
  smg        0.2  normalized 0.200  weight 0.345
Missing: cnea iaf pbdr twi
`, out)

	_, err = run(t, "calculate")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	reg := filepath.Join(dir, "reg")
	exp := filepath.Join(dir, "exp")
	metrics := filepath.Join(dir, "emi.prom")
	fn := writeJSON(t, filepath.Join(dir, "in.json"), []specimen.Record{
		stony("h1", 18.5, 16.5, .75),
		stony("l1", 24.5, 21, 1.05),
		noATP("h3", 18.6, 16.4, .74),
		stony("h2", 18.4, 16.6, .7),
	})
	out, err := run(t, "classify", fn,
		"--workers", "2", "--register", "--summary",
		"--registry", reg, "--export-dir", exp, "--metrics-file", metrics)
	require.NoError(t, err)

	// results in input order, a rejected entry only drops ATP
	var ids, groups []string
	for sc := bufio.NewScanner(strings.NewReader(out)); sc.Scan(); {
		var cl struct {
			ID, Group string
			EMI       struct{ Missing []string }
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &cl))
		ids = append(ids, cl.ID)
		groups = append(groups, cl.Group)
		if cl.ID == "h3" {
			assert.Contains(t, cl.EMI.Missing, "atp")
		}
	}
	assert.Equal(t, []string{"h1", "l1", "h3", "h2"}, ids)
	assert.Equal(t, []string{"H", "L", "H", "H"}, groups)

	r, err := registry.Open(reg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "h3", "h2"}, r.Indices().ByGroup["H"])

	m, err := filepath.Glob(filepath.Join(exp, "metbull_summary_*.csv"))
	require.NoError(t, err)
	assert.Len(t, m, 1)

	b, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(b), "emi_specimens_classified_total{band=")
	assert.Contains(t, string(b), "emi_classification_failures_total 0")
	assert.Contains(t, string(b), "emi_atp_rejected_total 1")
	assert.Contains(t, string(b), "emi_classification_duration_seconds_count 4")

	_, err = run(t, "classify", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRegistryCommands(t *testing.T) {
	dir := t.TempDir()
	reg := filepath.Join(dir, "reg")
	csv := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csv, []byte(
		"id,name,group,repository,recovery_year,mass_g\n"+
			"c1,Camel Donga,H,UAE,2001,51.5\n"+
			"c2,Dhofar,L,OMANI,1999,20\n"), 0o644))

	out, err := run(t, "registry", "add", csv, "--registry", reg)
	require.NoError(t, err)
	assert.Equal(t, "2 specimens added\n", out)

	out, err = run(t, "registry", "get", "c2", "--registry", reg)
	require.NoError(t, err)
	var rec specimen.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "Dhofar", rec.Name)

	_, err = run(t, "registry", "get", "c3", "--registry", reg)
	assert.Error(t, err)

	out, err = run(t, "registry", "query", "min_recovery_year=2000", "--registry", reg)
	require.NoError(t, err)
	assert.Equal(t, "c1           H    Camel Donga\n", out)

	out, err = run(t, "registry", "stats", "--registry", reg)
	require.NoError(t, err)
	var s registry.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 2, s.Total)

	// environment sets the directory too
	t.Setenv("EMI_REGISTRY_DIR", reg)
	out, err = run(t, "registry", "export", "--out", filepath.Join(dir, "out.json"), "c1", "c9")
	require.NoError(t, err)
	assert.Equal(t, "1 specimens exported\n", out)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	reg := filepath.Join(dir, "from-config")
	cfg := filepath.Join(dir, "emi.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(
		"log:\n  level: error\n  format: json\nregistry:\n  dir: "+reg+"\n"), 0o644))
	out, err := run(t, "--config", cfg, "registry", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_specimens": 0`)
	assert.DirExists(t, reg)

	require.NoError(t, os.WriteFile(cfg, []byte("log: [\n"), 0o644))
	_, err = run(t, "--config", cfg, "registry", "stats")
	assert.Error(t, err)
}

func TestFireball(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "emi.prom")
	out, err := run(t, "fireball", "--id", "FB1", "--metrics-file", metrics)
	require.NoError(t, err)
	var rep fireball.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "FB1", rep.EventID)
	assert.InDelta(t, 490, rep.EnergyKT, 5)
	require.NotNil(t, rep.Alert)
	assert.Nil(t, rep.ATP.Profile)
	b, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(b), "emi_entries_simulated_total 1")

	out, err = run(t, "fireball", "--velocity", "12", "--diameter", "1", "--profile")
	require.NoError(t, err)
	rep = fireball.Report{}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Nil(t, rep.Alert)
	assert.NotEmpty(t, rep.ATP.Profile)

	_, err = run(t, "fireball", "--velocity", "0")
	assert.Error(t, err)
}

func TestFireballNetworks(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2013, 2, 15, 3, 20, 33, 0, time.UTC)
	obs := func(id string, dt time.Duration, lat, mag float64) map[string]any {
		return map[string]any{
			"id": id, "time": t0.Add(dt), "velocity": 18.6, "angle": 18.5,
			"diameter": 19, "latitude": lat, "longitude": 61.1, "brightness": mag,
		}
	}
	a := writeJSON(t, filepath.Join(dir, "a.json"), []map[string]any{obs("a1", 0, 54.8, -17)})
	b := writeJSON(t, filepath.Join(dir, "b.json"), []map[string]any{
		obs("b1", time.Second, 54.85, -19),
		obs("b2", time.Hour, 40, -3),
	})
	out, err := run(t, "fireball",
		"--network", "east="+a, "--network", "west="+b,
		"--from", t0.Add(-time.Minute).Format(time.RFC3339),
		"--to", t0.Add(2*time.Hour).Format(time.RFC3339))
	require.NoError(t, err)
	var reps []fireball.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reps))
	require.Len(t, reps, 2)
	assert.Equal(t, "b1", reps[0].EventID)
	assert.Equal(t, "b2", reps[1].EventID)

	_, err = run(t, "fireball", "--network", a)
	assert.Error(t, err)
	_, err = run(t, "fireball", "--network", "x="+a, "--from", "yesterday")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	in := writeJSON(t, filepath.Join(dir, "in.json"), []specimen.Record{
		stony("h1", 18.5, 16.5, .75),
		stony("h2", 18.3, 16.4, .76),
	})
	out := writeJSON(t, filepath.Join(dir, "out.json"), []specimen.Record{
		stony("l1", 24.5, 21, 1.05),
		stony("ll1", 29, 24.5, 1.25),
		noATP("l2", 24.4, 20.9, 1.04),
	})
	res, err := run(t, "validate", "--truth", "h", in, out)
	require.NoError(t, err)
	assert.Contains(t, res, "Total specimens:    5\n")
	assert.NotContains(t, res, "Specimens ignored")
	assert.Contains(t, res, "Actual in-class             2             0\n")
	assert.Contains(t, res, "Actual out-of-class         0             3\n")
	assert.Contains(t, res, "Matthews correlation coefficient: 1.00\n")

	_, err = run(t, "validate", in, out)
	assert.Error(t, err)
}

func TestConfusion(t *testing.T) {
	c := emiprog.Confusion{TP: 90, FN: 10, FP: 5, TN: 95}
	assert.InDelta(t, .85106, c.Matthews(), 1e-5)
	assert.Equal(t, 0., emiprog.Confusion{TP: 3, FN: 4}.Matthews())
	assert.Equal(t, -1., emiprog.Confusion{FN: 2, FP: 2}.Matthews())
}

func TestCalib(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "emi.calib")
	out, err := run(t, "calib", "--out", snap)
	require.NoError(t, err)
	assert.Contains(t, out, snap)
	assert.FileExists(t, snap)

	out, err = run(t, "--calib", snap, "calculate", "--mcc", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "EMI 1.000 UNGROUPED CANDIDATE\n"), out)

	over := filepath.Join(dir, "over.yaml")
	require.NoError(t, os.WriteFile(over, []byte("weights:\n  mcc: 0\n"), 0o644))
	out, err = run(t, "--calib", over, "calculate", "--mcc", "1", "--smg", "0")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "EMI 0.000 UNAMBIGUOUS\n"), out)

	out, err = run(t, "calib", "--show")
	require.NoError(t, err)
	assert.Contains(t, out, "weights:")

	_, err = run(t, "--calib", filepath.Join(dir, "none.calib"), "calculate", "--mcc", "1")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, f := range []string{"json", "console"} {
		l, err := emiprog.NewLogger("debug", f)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
	_, err := emiprog.NewLogger("loud", "json")
	assert.Error(t, err)
	_, err = emiprog.NewLogger("info", "xml")
	assert.Error(t, err)
}
