// Public domain.

package emiprog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"

	"github.com/soniakeys/emi/entry"
	"github.com/soniakeys/emi/fireball"
)

func (a *app) fireballCmd() *cobra.Command {
	var (
		ev       fireball.Event
		angle    float64
		lat, lon float64
		nets     []string
		from, to string
		profile  bool
	)
	cmd := &cobra.Command{
		Use:   "fireball",
		Short: "Simulate the atmospheric entry of a fireball",
		Long: `Fireball simulates one entry given by flags and prints the thermal
profile, entry energy and any alert as JSON.

With --network name=file, reports are read instead from JSON files of
camera network observations between --from and --to.  Reports of one
fireball by several networks are merged and each merged event simulated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr := fireball.NewTracker(a.classifier.Simulator(), a.log)
			var reps []*fireball.Report
			if len(nets) == 0 {
				ev.Trajectory.Angle = unit.AngleFromDeg(angle)
				ev.Latitude = unit.AngleFromDeg(lat)
				ev.Longitude = unit.AngleFromDeg(lon)
				id, err := tr.Register(ev)
				if err != nil {
					return err
				}
				rep, err := tr.Process(id)
				if err != nil {
					return err
				}
				reps = append(reps, rep)
			} else {
				in := fireball.NewIntegrator(a.log)
				for _, n := range nets {
					name, fn, ok := strings.Cut(n, "=")
					if !ok {
						return fmt.Errorf("fireball: --network %q: want name=file", n)
					}
					in.Add(fireball.FileNetwork{NetName: name, Path: fn})
				}
				t1, t2, err := timeRange(from, to)
				if err != nil {
					return err
				}
				if reps, err = tr.Ingest(context.Background(), in, t1, t2); err != nil {
					return err
				}
			}
			for _, rep := range reps {
				a.metrics.simulated(rep.ATP)
				if !profile {
					rep.ATP.Profile = nil
				}
			}
			if len(nets) == 0 {
				return printJSON(cmd.OutOrStdout(), reps[0])
			}
			return printJSON(cmd.OutOrStdout(), reps)
		},
	}
	f := cmd.Flags()
	f.StringVar(&ev.ID, "id", "", "event ID, generated if empty")
	f.Float64Var(&ev.Trajectory.Velocity, "velocity", 18.6, "entry velocity, km/s")
	f.Float64Var(&angle, "angle", 18.5, "entry angle to the horizontal, degrees")
	f.Float64Var(&ev.Trajectory.Diameter, "diameter", 19, "diameter, m")
	f.StringVar(&ev.Trajectory.Composition, "composition", entry.DefaultComposition, "material")
	f.Float64Var(&ev.Trajectory.StartAltitude, "altitude", 0, "start altitude km, 0 for the model default")
	f.Float64Var(&lat, "lat", 0, "latitude, degrees")
	f.Float64Var(&lon, "lon", 0, "longitude, degrees")
	f.Float64Var(&ev.Brightness, "brightness", -10, "apparent magnitude")
	f.StringArrayVar(&nets, "network", nil, "name=file of network reports, repeatable")
	f.StringVar(&from, "from", "", "start of report window, RFC 3339 (default 24h before --to)")
	f.StringVar(&to, "to", "", "end of report window, RFC 3339 (default now)")
	f.BoolVar(&profile, "profile", false, "include the integrated profile")
	return cmd
}

func timeRange(from, to string) (t1, t2 time.Time, err error) {
	t2 = time.Now()
	if to != "" {
		if t2, err = time.Parse(time.RFC3339, to); err != nil {
			return
		}
	}
	t1 = t2.Add(-24 * time.Hour)
	if from != "" {
		t1, err = time.Parse(time.RFC3339, from)
	}
	return
}
