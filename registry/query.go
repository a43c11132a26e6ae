// Public domain.

package registry

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/soniakeys/emi/specimen"
)

// ErrUnknownField is returned for a filter on a field records do not have.
var ErrUnknownField = errors.New("unknown field")

// Filter selects records.  A key min_<field> or max_<field> bounds a
// numeric field inclusively; any other key must equal a text field.
// Records without a bounded numeric field do not match.
type Filter map[string]string

// ParseFilter builds a Filter from key=value arguments.
func ParseFilter(args []string) (Filter, error) {
	f := Filter{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("registry: filter %q: want key=value", a)
		}
		f[k] = v
	}
	return f, nil
}

type bound struct {
	field string
	min   bool
	v     float64
}

func (f Filter) compile() (text map[string]string, bounds []bound, err error) {
	text = map[string]string{}
	// full has every field set, to tell unknown names from absent values
	full := specimen.Record{RecoveryYear: 1, MassG: 1}
	for k, v := range f {
		var b bound
		switch {
		case strings.HasPrefix(k, "min_"):
			b = bound{field: k[4:], min: true}
		case strings.HasPrefix(k, "max_"):
			b = bound{field: k[4:]}
		default:
			if _, ok := full.Text(k); !ok {
				return nil, nil, fmt.Errorf("registry: %q: %w", k, ErrUnknownField)
			}
			text[k] = v
			continue
		}
		if _, ok := full.Field(b.field); !ok {
			return nil, nil, fmt.Errorf("registry: %q: %w", b.field, ErrUnknownField)
		}
		if b.v, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, nil, fmt.Errorf("registry: %s: %w", k, err)
		}
		bounds = append(bounds, b)
	}
	return
}

// Query returns the records matching f in insertion order.
func (r *Registry) Query(f Filter) ([]specimen.Record, error) {
	text, bounds, err := f.compile()
	if err != nil {
		return nil, err
	}
	x := r.Indices()
	ids := x.IDs
	if g, ok := text["group"]; ok {
		ids = x.ByGroup[g]
	}
	var res []specimen.Record
next:
	for _, id := range ids {
		rec, ok, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.log.Warn("indexed specimen missing", zap.String("id", id))
			continue
		}
		for k, want := range text {
			if got, _ := rec.Text(k); got != want {
				continue next
			}
		}
		for _, b := range bounds {
			v, ok := rec.Field(b.field)
			if !ok || b.min && v < b.v || !b.min && v > b.v {
				continue next
			}
		}
		res = append(res, rec)
	}
	return res, nil
}

// Import adds the records of a JSON, YAML or CSV file, chosen by
// extension, and returns how many were added.
func (r *Registry) Import(fn string) (n int, err error) {
	var recs []specimen.Record
	if strings.EqualFold(filepath.Ext(fn), ".csv") {
		recs, err = r.readCSV(fn)
	} else {
		recs, err = specimen.ReadFile(fn)
	}
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		if _, err = r.Add(rec); err != nil {
			return n, err
		}
		n++
	}
	r.log.Info("imported", zap.String("file", fn), zap.Int("specimens", n))
	return n, nil
}

func (r *Registry) readCSV(fn string) ([]specimen.Record, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: header: %w", fn, err)
	}
	var recs []specimen.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		var rec specimen.Record
		for i, col := range head {
			if err := setColumn(&rec, strings.ToLower(strings.TrimSpace(col)), row[i]); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", fn, line, err)
			}
		}
		recs = append(recs, rec)
	}
}

func setColumn(rec *specimen.Record, col, v string) (err error) {
	v = strings.TrimSpace(v)
	switch col {
	case "id":
		rec.ID = v
	case "name":
		rec.Name = v
	case "collection":
		rec.Collection = v
	case "repository":
		rec.Repository = v
	case "country":
		rec.Country = v
	case "group":
		rec.Group = v
	case "recovery_date":
		rec.RecoveryDate = v
	case "recovery_year":
		if v != "" {
			rec.RecoveryYear, err = strconv.Atoi(v)
		}
	case "mass_g":
		if v != "" {
			rec.MassG, err = strconv.ParseFloat(v, 64)
		}
	}
	return
}

// Export writes the records with the given IDs to fn as a JSON array.
// IDs not in the registry are skipped.  It returns how many were written.
func (r *Registry) Export(ids []string, fn string) (int, error) {
	recs := make([]specimen.Record, 0, len(ids))
	for _, id := range ids {
		rec, ok, err := r.Get(id)
		if err != nil {
			return 0, err
		}
		if !ok {
			r.log.Warn("export: no such specimen", zap.String("id", id))
			continue
		}
		recs = append(recs, rec)
	}
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return 0, err
	}
	if err = os.WriteFile(fn, b, 0o644); err != nil {
		return 0, err
	}
	return len(recs), nil
}
