// Public domain.

// Package registry is a directory backed specimen store.
//
// Each record is a JSON file <id>.json.  indices.json lists the record IDs
// by group, repository, recovery year and country.  Both are written with
// a temp file and rename so a reader never sees a partial file.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soniakeys/emi/specimen"
)

// IndexFile is the name of the index file within a registry directory.
const IndexFile = "indices.json"

// ErrBadID is returned for a record ID that cannot be used as a file name.
var ErrBadID = errors.New("invalid specimen id")

// Indices lists record IDs by metadata value.
type Indices struct {
	IDs          []string            `json:"ids"`
	ByGroup      map[string][]string `json:"by_group"`
	ByRepository map[string][]string `json:"by_repository"`
	ByYear       map[string][]string `json:"by_year"`
	ByCountry    map[string][]string `json:"by_country"`
}

func newIndices() Indices {
	return Indices{
		ByGroup:      map[string][]string{},
		ByRepository: map[string][]string{},
		ByYear:       map[string][]string{},
		ByCountry:    map[string][]string{},
	}
}

type indexKey struct {
	m map[string][]string
	k string
}

// keys lists the index entries of r.  Records with no group are filed
// under UNG.
func (x *Indices) keys(r *specimen.Record) []indexKey {
	group := r.Group
	if group == "" {
		group = "UNG"
	}
	ks := []indexKey{{x.ByGroup, group}}
	if r.Repository != "" {
		ks = append(ks, indexKey{x.ByRepository, r.Repository})
	}
	if r.RecoveryYear != 0 {
		ks = append(ks, indexKey{x.ByYear, strconv.Itoa(r.RecoveryYear)})
	}
	if r.Country != "" {
		ks = append(ks, indexKey{x.ByCountry, r.Country})
	}
	return ks
}

func (x *Indices) add(r *specimen.Record) {
	x.IDs = append(x.IDs, r.ID)
	for _, k := range x.keys(r) {
		k.m[k.k] = append(k.m[k.k], r.ID)
	}
}

func (x *Indices) remove(r *specimen.Record) {
	drop := func(ids []string) []string {
		return slices.DeleteFunc(ids, func(s string) bool { return s == r.ID })
	}
	x.IDs = drop(x.IDs)
	for _, k := range x.keys(r) {
		if ids := drop(k.m[k.k]); len(ids) > 0 {
			k.m[k.k] = ids
		} else {
			delete(k.m, k.k)
		}
	}
}

// Registry is a specimen store.  It is safe for concurrent use within one
// process.
type Registry struct {
	dir string
	log *zap.Logger

	mu    sync.RWMutex
	idx   Indices
	cache map[string]specimen.Record
}

// Open opens or creates the registry in dir.  A nil logger discards.
func Open(dir string, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	r := &Registry{
		dir:   dir,
		log:   log.With(zap.String("registry", dir)),
		idx:   newIndices(),
		cache: map[string]specimen.Record{},
	}
	b, err := os.ReadFile(filepath.Join(dir, IndexFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.log.Debug("new registry")
		return r, nil
	case err != nil:
		return nil, err
	}
	if err = json.Unmarshal(b, &r.idx); err != nil {
		return nil, fmt.Errorf("registry: %s: %w", IndexFile, err)
	}
	for _, m := range []*map[string][]string{
		&r.idx.ByGroup, &r.idx.ByRepository, &r.idx.ByYear, &r.idx.ByCountry,
	} {
		if *m == nil {
			*m = map[string][]string{}
		}
	}
	r.log.Debug("opened", zap.Int("specimens", len(r.idx.IDs)))
	return r, nil
}

// Dir returns the registry directory.
func (r *Registry) Dir() string { return r.dir }

func validID(id string) bool {
	return id != "" && id != "." && id != ".." &&
		!strings.ContainsAny(id, `/\`) && id+".json" != IndexFile
}

// Add stores rec, assigning a UUID if it has no ID, and returns the ID.
// A record with an existing ID replaces the old one.
func (r *Registry) Add(rec specimen.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if !validID(rec.ID) {
		return "", fmt.Errorf("registry: %q: %w", rec.ID, ErrBadID)
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old, replace, err := r.get(rec.ID)
	if err != nil {
		return "", err
	}
	// the in-memory state changes only after both files are written
	if err = WriteRename(r.path(rec.ID), b); err != nil {
		return "", err
	}
	idx := r.idx.clone()
	if replace {
		idx.remove(&old)
	}
	idx.add(&rec)
	if err = r.saveIndices(idx); err != nil {
		r.restore(rec.ID, old, replace)
		return "", err
	}
	r.idx = idx
	r.cache[rec.ID] = rec
	if replace {
		r.log.Info("replaced specimen", zap.String("id", rec.ID))
	}
	r.log.Debug("added specimen", zap.String("id", rec.ID), zap.String("group", rec.Group))
	return rec.ID, nil
}

// restore puts back the record file of id after a failed Add.
func (r *Registry) restore(id string, old specimen.Record, existed bool) {
	var err error
	if existed {
		var b []byte
		if b, err = json.MarshalIndent(old, "", "  "); err == nil {
			err = WriteRename(r.path(id), b)
		}
	} else {
		err = os.Remove(r.path(id))
	}
	if err != nil {
		r.log.Error("record file left inconsistent", zap.String("id", id), zap.Error(err))
	}
}

func (r *Registry) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *Registry) saveIndices(idx Indices) error {
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return WriteRename(filepath.Join(r.dir, IndexFile), b)
}

// Get returns the record with the given ID.  ok is false if there is none.
func (r *Registry) Get(id string) (rec specimen.Record, ok bool, err error) {
	r.mu.RLock()
	rec, ok = r.cache[id]
	r.mu.RUnlock()
	if ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

// get loads through the cache.  r.mu must be held for writing.
func (r *Registry) get(id string) (rec specimen.Record, ok bool, err error) {
	if rec, ok = r.cache[id]; ok {
		return
	}
	if !validID(id) {
		return rec, false, nil
	}
	b, err := os.ReadFile(r.path(id))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return rec, false, nil
	case err != nil:
		return
	}
	if err = json.Unmarshal(b, &rec); err != nil {
		return rec, false, fmt.Errorf("registry: %s: %w", id, err)
	}
	r.cache[id] = rec
	return rec, true, nil
}

// Indices returns a copy of the current indices.
func (r *Registry) Indices() Indices {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx.clone()
}

func (x *Indices) clone() Indices {
	c := newIndices()
	c.IDs = slices.Clone(x.IDs)
	for _, p := range []struct{ dst, src map[string][]string }{
		{c.ByGroup, x.ByGroup},
		{c.ByRepository, x.ByRepository},
		{c.ByYear, x.ByYear},
		{c.ByCountry, x.ByCountry},
	} {
		for k, v := range p.src {
			p.dst[k] = slices.Clone(v)
		}
	}
	return c
}

// Stats summarizes the registry.
type Stats struct {
	Total         int            `json:"total_specimens"`
	ByGroup       map[string]int `json:"by_group"`
	ByRepository  map[string]int `json:"by_repository"`
	RecoveryYears int            `json:"recovery_years"`
	SizeMB        float64        `json:"database_size_mb"`
}

// Stats counts records and sums the size of the JSON files.
func (r *Registry) Stats() (Stats, error) {
	x := r.Indices()
	s := Stats{
		Total:         len(x.IDs),
		ByGroup:       map[string]int{},
		ByRepository:  map[string]int{},
		RecoveryYears: len(x.ByYear),
	}
	for k, v := range x.ByGroup {
		s.ByGroup[k] = len(v)
	}
	for k, v := range x.ByRepository {
		s.ByRepository[k] = len(v)
	}
	m, err := filepath.Glob(filepath.Join(r.dir, "*.json"))
	if err != nil {
		return s, err
	}
	var size int64
	for _, fn := range m {
		fi, err := os.Stat(fn)
		if err != nil {
			return s, err
		}
		size += fi.Size()
	}
	s.SizeMB = float64(size) / (1 << 20)
	return s, nil
}

// WriteRename writes b to fileName through a temp file in the same
// directory and a rename.
func WriteRename(fileName string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(fileName), ".emi-*")
	if err != nil {
		return fmt.Errorf("WriteRename(%s): %w", fileName, err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("WriteRename(%s): %w", fileName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("WriteRename(%s): %w", fileName, err)
	}
	if err = os.Rename(tmp.Name(), fileName); err != nil {
		return fmt.Errorf("WriteRename(%s): %w", fileName, err)
	}
	return nil
}
