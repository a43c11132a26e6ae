// Public domain.

package specimen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format of a specimen file.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatOf picks a format from a file name extension.  Anything not .yaml
// or .yml is JSON.
func FormatOf(fn string) Format {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Decode reads one record or a list of records.
func Decode(r io.Reader, f Format) ([]Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f == YAML {
		return decodeYAML(b)
	}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var recs []Record
		err = json.Unmarshal(b, &recs)
		return recs, err
	}
	var rec Record
	if err = json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return []Record{rec}, nil
}

func decodeYAML(b []byte) ([]Record, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(b, &n); err != nil {
		return nil, err
	}
	if n.Kind == 0 {
		return nil, nil
	}
	doc := &n
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		doc = n.Content[0]
	}
	switch doc.Kind {
	case yaml.SequenceNode:
		var recs []Record
		err := doc.Decode(&recs)
		return recs, err
	case yaml.MappingNode:
		var rec Record
		if err := doc.Decode(&rec); err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}
	return nil, fmt.Errorf("specimen: YAML document is not a record or list")
}

// ReadFile reads records from a JSON or YAML file, chosen by extension.
func ReadFile(fn string) ([]Record, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := Decode(f, FormatOf(fn))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return recs, nil
}
