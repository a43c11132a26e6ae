// Public domain.

// Package fireball tracks observed fireball events.
//
// A Tracker registers events, runs the entry simulator on them and raises
// alerts for energetic entries.  An Integrator collects reports from
// several camera networks and merges reports of the same fireball.
package fireball

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soniakeys/unit"
	"go.uber.org/zap"

	"github.com/soniakeys/emi/entry"
)

// AlertKT is the entry energy in kt TNT above which Process raises an
// alert.
const AlertKT = 100

// AlertLifetime is how long an alert stays active.
const AlertLifetime = 7 * 24 * time.Hour

var (
	ErrNotFound = errors.New("no such event")
	ErrExists   = errors.New("event already registered")
)

// Event is one fireball observation.
type Event struct {
	ID         string           `json:"id"`
	Time       time.Time        `json:"time"`
	Trajectory entry.Trajectory `json:"trajectory"`
	Latitude   unit.Angle       `json:"latitude"`
	Longitude  unit.Angle       `json:"longitude"`
	Network    string           `json:"network"`
	// apparent magnitude, lower is brighter
	Brightness float64 `json:"brightness"`
}

// Alert reports a significant event.
type Alert struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Time        time.Time `json:"time"`
	Expires     time.Time `json:"expires"`
	EnergyKT    float64   `json:"energy_kt"`
	Resolved    bool      `json:"resolved"`
}

// Report is the outcome of processing an event.
//
// EnergyKT is the larger of the airburst energy estimate and the kinetic
// energy of the body at entry.  BurstAltitude is the energy scaled burst
// altitude estimate in km, 0 for a body expected to reach the ground.
type Report struct {
	EventID       string        `json:"event_id"`
	ATP           *entry.Result `json:"atp"`
	EnergyKT      float64       `json:"energy_kt"`
	BurstAltitude float64       `json:"burst_altitude_km"`
	Alert         *Alert        `json:"alert,omitempty"`
}

type tracked struct {
	ev     Event
	report *Report
}

// Tracker holds registered events and their alerts.  It is safe for
// concurrent use.
type Tracker struct {
	sim *entry.Simulator
	log *zap.Logger
	// Clock supplies registration and alert times.  It defaults to
	// time.Now.
	Clock func() time.Time

	mu     sync.Mutex
	events map[string]*tracked
	alerts []Alert
}

// NewTracker returns a Tracker simulating with sim.  A nil sim uses
// entry.Default and a nil logger discards.
func NewTracker(sim *entry.Simulator, log *zap.Logger) *Tracker {
	if sim == nil {
		sim = entry.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		sim:    sim,
		log:    log,
		Clock:  time.Now,
		events: map[string]*tracked{},
	}
}

// Register adds e and returns its ID.  An empty ID is assigned a UUID and
// a zero Time is set to the current time.
func (t *Tracker) Register(e Event) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = t.Clock()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.events[e.ID]; ok {
		return "", fmt.Errorf("fireball: %s: %w", e.ID, ErrExists)
	}
	t.events[e.ID] = &tracked{ev: e}
	t.log.Debug("registered", zap.String("event", e.ID), zap.String("network", e.Network))
	return e.ID, nil
}

// Event returns the registered event and its report, nil if it has not
// been processed.
func (t *Tracker) Event(id string) (Event, *Report, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.events[id]
	if !ok {
		return Event{}, nil, false
	}
	return tr.ev, tr.report, true
}

// Process simulates the entry of a registered event and stores the report,
// replacing any earlier one.
func (t *Tracker) Process(id string) (*Report, error) {
	t.mu.Lock()
	tr, ok := t.events[id]
	var ev Event
	if ok {
		ev = tr.ev
	}
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("fireball: %s: %w", id, ErrNotFound)
	}

	res, err := t.sim.Simulate(ev.Trajectory)
	if err != nil {
		return nil, fmt.Errorf("fireball: %s: %w", id, err)
	}
	mat, _ := t.sim.Material(ev.Trajectory.Composition)
	v := ev.Trajectory.Velocity * 1000
	rep := &Report{
		EventID:       id,
		ATP:           res,
		EnergyKT:      max(res.Airburst.EnergyKT, entry.KineticEnergyKT(v, ev.Trajectory.Diameter, mat.Density)),
		BurstAltitude: entry.EstimateAirburstAltitude(v, ev.Trajectory.Diameter, mat.Density),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if rep.EnergyKT > AlertKT {
		now := t.Clock()
		a := Alert{
			ID:          uuid.NewString(),
			EventID:     id,
			Type:        "fireball",
			Severity:    "high",
			Description: fmt.Sprintf("Large fireball detected: %s", id),
			Time:        now,
			Expires:     now.Add(AlertLifetime),
			EnergyKT:    rep.EnergyKT,
		}
		t.alerts = append(t.alerts, a)
		rep.Alert = &a
		t.log.Warn("fireball alert",
			zap.String("event", id),
			zap.String("alert", a.ID),
			zap.Float64("energy_kt", rep.EnergyKT))
	}
	tr.report = rep
	t.log.Info("processed",
		zap.String("event", id),
		zap.Float64("peak_c", res.PeakTempC),
		zap.Bool("airburst", res.Airburst.Detected))
	return rep, nil
}

// Alerts returns the alerts that are neither resolved nor expired, oldest
// first.
func (t *Tracker) Alerts() []Alert {
	now := t.Clock()
	t.mu.Lock()
	defer t.mu.Unlock()
	var as []Alert
	for _, a := range t.alerts {
		if !a.Resolved && now.Before(a.Expires) {
			as = append(as, a)
		}
	}
	return as
}

// Resolve marks an alert resolved.  It returns false if there is no alert
// with that ID.
func (t *Tracker) Resolve(alertID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.alerts {
		if t.alerts[i].ID == alertID {
			t.alerts[i].Resolved = true
			return true
		}
	}
	return false
}
