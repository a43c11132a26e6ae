// Public domain.

package fireball

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
	"go.uber.org/zap"

	"github.com/soniakeys/emi/entry"
)

// Network is a source of fireball reports, typically a camera network.
type Network interface {
	Name() string
	Events(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Reports of one fireball by different networks are merged when they are
// closer than MergeDistance km on the ground and MergeWindow in time.
const (
	MergeDistance = 50.
	MergeWindow   = 10 * time.Second
)

// Merged is a fireball seen by one or more networks.  Event is the
// brightest report.
type Merged struct {
	Event
	Networks []string `json:"networks"`
	Reports  int      `json:"reports"`
}

// Integrator combines reports from several networks.
type Integrator struct {
	networks []Network
	log      *zap.Logger
}

// NewIntegrator returns an Integrator over the given networks.  A nil
// logger discards.
func NewIntegrator(log *zap.Logger, nets ...Network) *Integrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Integrator{networks: nets, log: log}
}

// Add adds a network.
func (in *Integrator) Add(n Network) { in.networks = append(in.networks, n) }

// Distance returns the ground distance in km between two reports on the
// Earth ellipsoid.
func Distance(a, b *Event) float64 {
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return 0
	}
	return globe.Earth76.Distance(
		globe.Coord{Lat: a.Latitude, Lon: a.Longitude},
		globe.Coord{Lat: b.Latitude, Lon: b.Longitude})
}

// same reports whether a and b are reports of one fireball.
func same(a, b *Event) bool {
	dt := a.Time.Sub(b.Time)
	if dt < 0 {
		dt = -dt
	}
	return dt <= MergeWindow && Distance(a, b) <= MergeDistance
}

// Events queries every network for reports in [from, to] and merges
// reports of the same fireball.  Results are in time order.  Any network
// error fails the whole query.
func (in *Integrator) Events(ctx context.Context, from, to time.Time) ([]Merged, error) {
	var all []Event
	for _, n := range in.networks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		evs, err := n.Events(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("fireball: network %s: %w", n.Name(), err)
		}
		for _, e := range evs {
			if e.Network == "" {
				e.Network = n.Name()
			}
			all = append(all, e)
		}
		in.log.Debug("network queried", zap.String("network", n.Name()), zap.Int("events", len(evs)))
	}
	slices.SortStableFunc(all, func(a, b Event) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Network, b.Network)
	})

	// each report joins the first earlier group whose first report it
	// matches
	var ms []Merged
	var firsts []*Event
	for i := range all {
		e := &all[i]
		j := slices.IndexFunc(firsts, func(f *Event) bool { return same(f, e) })
		if j < 0 {
			ms = append(ms, Merged{Event: *e, Networks: []string{e.Network}, Reports: 1})
			firsts = append(firsts, e)
			continue
		}
		m := &ms[j]
		m.Reports++
		if !slices.Contains(m.Networks, e.Network) {
			m.Networks = append(m.Networks, e.Network)
		}
		if e.Brightness < m.Brightness {
			m.Event = *e
		}
	}
	in.log.Info("merged network events",
		zap.Int("reports", len(all)),
		zap.Int("events", len(ms)))
	return ms, nil
}

// Ingest registers and processes the merged events of in between from and
// to.  Events already registered are skipped.
func (t *Tracker) Ingest(ctx context.Context, in *Integrator, from, to time.Time) ([]*Report, error) {
	ms, err := in.Events(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var reps []*Report
	for _, m := range ms {
		id, err := t.Register(m.Event)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return reps, err
		}
		rep, err := t.Process(id)
		if err != nil {
			return reps, err
		}
		reps = append(reps, rep)
	}
	return reps, nil
}

// FileNetwork is a Network reading reports from a JSON file holding an
// array of observations.  Angles in the file are in degrees.
type FileNetwork struct {
	NetName string
	Path    string
}

type observation struct {
	ID            string    `json:"id"`
	Time          time.Time `json:"time"`
	Velocity      float64   `json:"velocity"`
	Angle         float64   `json:"angle"`
	Diameter      float64   `json:"diameter"`
	Composition   string    `json:"composition"`
	StartAltitude float64   `json:"altitude_start"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Brightness    float64   `json:"brightness"`
}

// Name implements Network.
func (f FileNetwork) Name() string { return f.NetName }

// Events implements Network, returning the reports timed within
// [from, to].
func (f FileNetwork) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var obs []observation
	if err = json.Unmarshal(b, &obs); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	var evs []Event
	for _, o := range obs {
		if o.Time.Before(from) || o.Time.After(to) {
			continue
		}
		evs = append(evs, Event{
			ID:   o.ID,
			Time: o.Time,
			Trajectory: entry.Trajectory{
				Velocity:      o.Velocity,
				Angle:         unit.AngleFromDeg(o.Angle),
				Diameter:      o.Diameter,
				Composition:   o.Composition,
				StartAltitude: o.StartAltitude,
			},
			Latitude:   unit.AngleFromDeg(o.Latitude),
			Longitude:  unit.AngleFromDeg(o.Longitude),
			Network:    f.NetName,
			Brightness: o.Brightness,
		})
	}
	return evs, nil
}
