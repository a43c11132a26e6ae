// Public domain.

// Package export writes classifications as Meteoritical Bulletin
// submission entries and CSV summaries.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/soniakeys/emi/fusion"
	"github.com/soniakeys/emi/registry"
	"github.com/soniakeys/emi/specimen"
)

// Producer names the exporting program in entry metadata.
const Producer = "emi"

// Ext is the file extension of a MetBull entry.
const Ext = ".metbull"

// stamp is the time format of file names.
const stamp = "20060102_150405"

// Metadata describes the export itself.
type Metadata struct {
	Exporter   string    `json:"exporter"`
	ExportDate time.Time `json:"export_date"`
}

// SpecimenInfo is the catalog part of an entry.
type SpecimenInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Collection   string  `json:"collection"`
	Repository   string  `json:"repository"`
	RecoveryDate string  `json:"recovery_date"`
	RecoveryYear int     `json:"recovery_year,omitempty"`
	Country      string  `json:"country,omitempty"`
	MassG        float64 `json:"mass_g"`
}

// ClassificationInfo is the classification part of an entry.
type ClassificationInfo struct {
	Group           string  `json:"group"`
	ShockStage      string  `json:"shock_stage"`
	WeatheringGrade string  `json:"weathering_grade"`
	Confidence      float64 `json:"confidence"`
	Band            string  `json:"band"`
	Action          string  `json:"action"`
}

// Entry is one MetBull submission entry.  Parameters holds EMI and the raw
// inputs it was fused from.
type Entry struct {
	Metadata       Metadata           `json:"metadata"`
	Specimen       SpecimenInfo       `json:"specimen"`
	Classification ClassificationInfo `json:"classification"`
	Parameters     map[string]float64 `json:"parameters"`
	References     []string           `json:"references"`
}

// NewEntry builds an entry from a record and its classification.
func NewEntry(rec *specimen.Record, cl *specimen.Classification, now time.Time) Entry {
	e := Entry{
		Metadata: Metadata{Exporter: Producer, ExportDate: now},
		Specimen: SpecimenInfo{
			ID:           rec.ID,
			Name:         rec.Name,
			Collection:   rec.Collection,
			Repository:   rec.Repository,
			RecoveryDate: rec.RecoveryDate,
			RecoveryYear: rec.RecoveryYear,
			Country:      rec.Country,
			MassG:        rec.MassG,
		},
		Classification: ClassificationInfo{
			Group:      cl.Group,
			Confidence: cl.Confidence,
			Band:       cl.EMI.Band.Label,
			Action:     cl.EMI.Band.Action,
		},
		Parameters: cl.Parameters(),
		References: rec.References,
	}
	if e.References == nil {
		e.References = []string{}
	}
	e.Parameters["emi"] = cl.EMI.EMI
	if cl.Shock != nil {
		e.Classification.ShockStage = cl.Shock.Stage
	}
	if cl.Weather != nil {
		e.Classification.WeatheringGrade = cl.Weather.Grade.Code
	}
	return e
}

// Exporter writes files into one directory.
type Exporter struct {
	dir string
	log *zap.Logger
	// Clock supplies export times.  It defaults to time.Now.
	Clock func() time.Time
}

// New creates dir if needed and returns an Exporter writing into it.  A nil
// logger discards.
func New(dir string, log *zap.Logger) (*Exporter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Exporter{dir: dir, log: log, Clock: time.Now}, nil
}

// Export writes <id>_<timestamp>.metbull and returns its path.
func (x *Exporter) Export(rec *specimen.Record, cl *specimen.Classification) (string, error) {
	now := x.Clock()
	id := rec.ID
	if id == "" {
		id = "unknown"
	}
	fn := filepath.Join(x.dir, fmt.Sprintf("%s_%s%s", id, now.Format(stamp), Ext))
	b, err := json.MarshalIndent(NewEntry(rec, cl, now), "", "  ")
	if err != nil {
		return "", err
	}
	if err = registry.WriteRename(fn, b); err != nil {
		return "", err
	}
	x.log.Info("exported", zap.String("id", id), zap.String("file", fn))
	return fn, nil
}

// SummaryHeader is the header row of a summary CSV.
var SummaryHeader = []string{
	"Specimen ID", "Name", "Group", "EMI",
	"MCC", "SMG", "TWI", "IAF", "ATP", "PBDR", "CNEA",
	"Band", "Confidence",
}

var summaryParams = []string{
	fusion.MCC, fusion.SMG, fusion.TWI, fusion.IAF, fusion.ATP, fusion.PBDR, fusion.CNEA,
}

func num(x float64) string { return strconv.FormatFloat(x, 'g', 6, 64) }

// SummaryRow formats one summary line.  Parameters an engine did not
// produce are empty.
func SummaryRow(rec *specimen.Record, cl *specimen.Classification) []string {
	row := []string{rec.ID, rec.Name, cl.Group, num(cl.EMI.EMI)}
	p := cl.Parameters()
	for _, n := range summaryParams {
		if v, ok := p[n]; ok {
			row = append(row, num(v))
		} else {
			row = append(row, "")
		}
	}
	return append(row, cl.EMI.Band.Label, num(cl.Confidence))
}

// ExportSummary writes metbull_summary_<timestamp>.csv with one row per
// record and returns its path.  recs and cls must be the same length.
func (x *Exporter) ExportSummary(recs []specimen.Record, cls []*specimen.Classification) (fn string, err error) {
	if len(recs) != len(cls) {
		return "", fmt.Errorf("export: %d records, %d classifications", len(recs), len(cls))
	}
	fn = filepath.Join(x.dir, "metbull_summary_"+x.Clock().Format(stamp)+".csv")
	f, err := os.Create(fn)
	if err != nil {
		return "", err
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()
	w := csv.NewWriter(f)
	w.Write(SummaryHeader)
	for i := range recs {
		w.Write(SummaryRow(&recs[i], cls[i]))
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return "", err
	}
	x.log.Info("exported summary", zap.String("file", fn), zap.Int("specimens", len(recs)))
	return fn, nil
}
