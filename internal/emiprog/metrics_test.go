// Public domain.

package emiprog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/emi/internal/emiprog"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := emiprog.NewMetrics(reg)
	require.NoError(t, err)

	m.Classified.WithLabelValues("UNAMBIGUOUS").Inc()
	m.Classified.WithLabelValues("UNAMBIGUOUS").Inc()
	m.Classified.WithLabelValues("ANOMALOUS").Inc()
	m.Entries.Inc()
	assert.Equal(t, 2., testutil.ToFloat64(m.Classified.WithLabelValues("UNAMBIGUOUS")))
	assert.Equal(t, 1., testutil.ToFloat64(m.Entries))
	assert.Equal(t, 0., testutil.ToFloat64(m.Airbursts))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Classified))

	err = testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP emi_entries_simulated_total Atmospheric entries simulated.
# TYPE emi_entries_simulated_total counter
emi_entries_simulated_total 1
`), "emi_entries_simulated_total")
	assert.NoError(t, err)

	// same names on one registry
	_, err = emiprog.NewMetrics(reg)
	assert.Error(t, err)

	fn := filepath.Join(t.TempDir(), "emi.prom")
	require.NoError(t, m.WriteFile(fn))
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Contains(t, string(b), `emi_specimens_classified_total{band="ANOMALOUS"} 1`)
}
