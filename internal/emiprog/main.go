// Public domain.

// Package emiprog is the emi command.
package emiprog

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/soniakeys/exit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/soniakeys/emi/calib"
	"github.com/soniakeys/emi/export"
	"github.com/soniakeys/emi/fusion"
	"github.com/soniakeys/emi/registry"
	"github.com/soniakeys/emi/specimen"
)

const version = "0.1 Go source."

// Main runs the emi command and terminates on error.
func Main() {
	defer exit.Handler()
	if err := NewCommand().Execute(); err != nil {
		exit.Log(err)
	}
}

// app is the state shared by the commands of one run, set up from the
// configuration before any command runs.
type app struct {
	v          *viper.Viper
	cfg        Config
	log        *zap.Logger
	tables     calib.Tables
	classifier *specimen.Classifier
	metrics    *Metrics
}

// NewCommand returns the emi root command.
func NewCommand() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "emi",
		Short: "Meteorite classification and atmospheric entry analysis",
		Long: `emi classifies meteorite specimens from their analytical measurements,
fusing up to seven parameter scores into an Enhanced Meteorite Index, and
simulates atmospheric entry of observed fireballs.

Settings come from flags, EMI_ environment variables (EMI_LOG_LEVEL,
EMI_REGISTRY_DIR, ...) and an optional emi.yaml config file, in that
order of precedence.`,
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
		PersistentPostRunE: func(*cobra.Command, []string) error { return a.finish() },
	}
	addConfigFlags(root.PersistentFlags())
	root.AddCommand(
		a.classifyCmd(),
		a.calculateCmd(),
		a.fireballCmd(),
		a.validateCmd(),
		a.registryCmd(),
		a.calibCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) (err error) {
	if a.cfg, err = loadConfig(a.v, cmd.Root().PersistentFlags()); err != nil {
		return
	}
	if a.log, err = NewLogger(a.cfg.LogLevel, a.cfg.LogFormat); err != nil {
		return
	}
	if a.tables, err = loadTables(a.cfg.CalibFile, a.log); err != nil {
		return
	}
	if a.classifier, err = specimen.New(a.tables); err != nil {
		return
	}
	a.metrics, err = NewMetrics(nil)
	return
}

func (a *app) finish() error {
	defer a.log.Sync()
	if a.cfg.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
		return err
	}
	a.log.Debug("metrics written", zap.String("file", a.cfg.MetricsFile))
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) classifyCmd() *cobra.Command {
	var register, exp, summary bool
	cmd := &cobra.Command{
		Use:   "classify <specimen-file>...",
		Short: "Classify specimens",
		Long: `Classify reads specimen records from JSON or YAML files, each holding one
record or a list, and writes one JSON classification per line in input
order.  A specimen whose entry trajectory is rejected is still classified
from its other measurements, with a warning.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var recs []specimen.Record
			for _, fn := range args {
				r, err := specimen.ReadFile(fn)
				if err != nil {
					return err
				}
				recs = append(recs, r...)
			}
			var reg *registry.Registry
			var x *export.Exporter
			var err error
			if register {
				if reg, err = registry.Open(a.cfg.RegistryDir, a.log); err != nil {
					return err
				}
			}
			if exp || summary {
				if x, err = export.New(a.cfg.ExportDir, a.log); err != nil {
					return err
				}
			}
			var done []specimen.Record
			var cls []*specimen.Classification
			enc := json.NewEncoder(cmd.OutOrStdout())
			err = classifyAll(a.classifier, recs, a.cfg.Workers, a.metrics, func(o outcome) error {
				if o.cl == nil {
					a.log.Warn("not classified", zap.String("id", o.rec.ID), zap.Error(o.err))
					return nil
				}
				if o.err != nil {
					a.log.Warn("classified without ATP", zap.String("id", o.rec.ID), zap.Error(o.err))
				}
				if err := enc.Encode(o.cl); err != nil {
					return err
				}
				if reg != nil {
					rec := *o.rec
					if rec.Group == "" && o.cl.Group != specimen.Unknown {
						rec.Group = o.cl.Group
					}
					if _, err := reg.Add(rec); err != nil {
						return err
					}
				}
				if exp {
					if _, err := x.Export(o.rec, o.cl); err != nil {
						return err
					}
				}
				done = append(done, *o.rec)
				cls = append(cls, o.cl)
				return nil
			})
			if err != nil {
				return err
			}
			if summary {
				_, err = x.ExportSummary(done, cls)
			}
			a.log.Info("classified", zap.Int("specimens", len(done)), zap.Int("read", len(recs)))
			return err
		},
	}
	cmd.Flags().BoolVar(&register, "register", false, "add classified specimens to the registry")
	cmd.Flags().BoolVar(&exp, "export", false, "write a MetBull entry per specimen")
	cmd.Flags().BoolVar(&summary, "summary", false, "write a MetBull CSV summary")
	return cmd
}

func (a *app) calculateCmd() *cobra.Command {
	vals := map[string]*float64{}
	cmd := &cobra.Command{
		Use:   "calculate [--mcc x] [--smg x] ... [--cnea x]",
		Short: "Fuse raw parameter values into an EMI",
		Long: `Calculate fuses parameter values given directly on the command line.
ATP is a peak temperature in °C and CNEA an exposure age in Ma, the other
parameters are scores in [0,1].  Parameters not given are left out and the
remaining weights renormalized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := map[string]float64{}
			for n, v := range vals {
				if cmd.Flags().Changed(n) {
					params[n] = *v
				}
			}
			if len(params) == 0 {
				return fmt.Errorf("calculate: no parameters given")
			}
			printFusion(cmd.OutOrStdout(), a.classifier.Fuser().Fuse(params))
			return nil
		},
	}
	for _, n := range []string{
		fusion.MCC, fusion.SMG, fusion.TWI, fusion.IAF, fusion.ATP, fusion.PBDR, fusion.CNEA,
	} {
		vals[n] = cmd.Flags().Float64(n, 0, strings.ToUpper(n)+" value")
	}
	return cmd
}

func printFusion(w io.Writer, r fusion.Result) {
	fmt.Fprintf(w, "EMI %.3f %s\n", r.EMI, r.Band.Label)
	fmt.Fprintf(w, "Action: %s\n", r.Band.Action)
	names := make([]string, 0, len(r.Contributions))
	for n := range r.Contributions {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := r.Contributions[n]
		fmt.Fprintf(w, "  %-4s %9.4g  normalized %.3f  weight %.3f\n",
			n, c.Value, c.Normalized, c.Weight)
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "Missing: %s\n", strings.Join(r.Missing, " "))
	}
}
