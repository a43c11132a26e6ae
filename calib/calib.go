// Public domain.

// Package calib holds the calibration tables of all EMI engines as one
// read-only value.
//
// Tables come from Default, from a YAML override file applied on top of the
// defaults, or from a binary snapshot written by WriteFile.  Engines copy
// what they need at construction and never write back.
package calib

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soniakeys/emi/entry"
	"github.com/soniakeys/emi/exposure"
	"github.com/soniakeys/emi/fusion"
	"github.com/soniakeys/emi/hse"
	"github.com/soniakeys/emi/isotope"
	"github.com/soniakeys/emi/mineral"
	"github.com/soniakeys/emi/shock"
	"github.com/soniakeys/emi/weather"
)

// Sfn is the default snapshot file name.
const Sfn = "emi.calib"

// Version identifies the snapshot layout.  ReadFile rejects other versions.
const Version = "emi-calib-1"

// Tables is the complete calibration.
type Tables struct {
	Weights    fusion.Weights    `yaml:"weights"`
	Thresholds fusion.Thresholds `yaml:"thresholds"`
	Mineral    mineral.Tables    `yaml:"mineral"`
	Shock      shock.Tables      `yaml:"shock"`
	Weather    weather.Tables    `yaml:"weather"`
	Isotope    isotope.Tables    `yaml:"isotope"`
	Entry      entry.Model       `yaml:"entry"`
	Materials  entry.Materials   `yaml:"materials"`
	HSE        hse.Tables        `yaml:"hse"`
	Exposure   exposure.Tables   `yaml:"exposure"`
}

// Default returns a fresh copy of the standard calibration.
func Default() Tables {
	return Tables{
		Weights:    fusion.DefaultWeights(),
		Thresholds: fusion.DefaultThresholds(),
		Mineral:    mineral.DefaultTables(),
		Shock:      shock.DefaultTables(),
		Weather:    weather.DefaultTables(),
		Isotope:    isotope.DefaultTables(),
		Entry:      entry.DefaultModel(),
		Materials:  entry.DefaultMaterials(),
		HSE:        hse.DefaultTables(),
		Exposure:   exposure.DefaultTables(),
	}
}

// Validate checks every table.
func (t Tables) Validate() error {
	if _, err := fusion.NewFuser(t.Weights, t.Thresholds); err != nil {
		return fmt.Errorf("calib: fusion: %w", err)
	}
	for _, v := range []interface{ Validate() error }{
		t.Mineral, t.Shock, t.Weather, t.Isotope,
		t.Entry, t.Materials, t.HSE, t.Exposure,
	} {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("calib: %w", err)
		}
	}
	return nil
}

// Fuser returns the EMI fuser for the weights and thresholds.
func (t Tables) Fuser() (*fusion.Fuser, error) {
	return fusion.NewFuser(t.Weights, t.Thresholds)
}

// Load decodes YAML from r over the default calibration and validates the
// result.
//
// Map valued tables merge key by key, lists replace the default list.
// Unknown keys are an error.
func Load(r io.Reader) (Tables, error) {
	t := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tables{}, fmt.Errorf("calib: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// LoadFile is Load from a named YAML file.
func LoadFile(fn string) (Tables, error) {
	f, err := os.Open(fn)
	if err != nil {
		return Tables{}, err
	}
	defer f.Close()
	return Load(f)
}

// WriteFile writes a binary snapshot of t, stamped with the current time.
func WriteFile(fn string, t Tables) (err error) {
	if err = t.Validate(); err != nil {
		return
	}
	f, err := os.Create(fn)
	if err != nil {
		return
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()
	enc := gob.NewEncoder(f)
	for _, v := range []any{Version, time.Now().UTC(), t} {
		if err = enc.Encode(v); err != nil {
			return
		}
	}
	return
}

// ReadFile reads a snapshot written by WriteFile, returning the tables and
// the time the snapshot was written.
func ReadFile(fn string) (t Tables, created time.Time, err error) {
	var f *os.File
	f, err = os.Open(fn)
	if err != nil {
		return
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	var v string
	if err = dec.Decode(&v); err != nil {
		return
	}
	if v != Version {
		err = fmt.Errorf("calib: %s: snapshot version %q, want %q", fn, v, Version)
		return
	}
	if err = dec.Decode(&created); err != nil {
		return
	}
	if err = dec.Decode(&t); err != nil {
		return
	}
	err = t.Validate()
	return
}
