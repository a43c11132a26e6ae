// Public domain.

package emiprog

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soniakeys/emi/specimen"
)

// Confusion counts predictions of membership in one group.
type Confusion struct {
	TP, FN, FP, TN int
}

// Matthews returns the Matthews correlation coefficient, 0 when any
// margin is empty.
func (c Confusion) Matthews() float64 {
	tp := float64(c.TP)
	fn := float64(c.FN)
	fp := float64(c.FP)
	tn := float64(c.TN)
	if d := (tp + fp) * (tp + fn) * (tn + fp) * (tn + fn); d > 0 {
		return (tp*tn - fp*fn) / math.Sqrt(d)
	}
	return 0
}

func (a *app) validateCmd() *cobra.Command {
	var truth string
	cmd := &cobra.Command{
		Use:   "validate --truth <group> <in-class> <out-of-class>",
		Short: "Score group predictions with the Matthews correlation coefficient",
		Long: `Validate classifies two specimen files, one of specimens known to be in
the group named by --truth and one of specimens known not to be, and
reports how well the predicted groups separate them.  A specimen is
predicted in-class when its classified group matches --truth, ignoring
case.  A specimen whose entry trajectory is rejected is judged on its
other measurements.  Specimens that cannot be classified are counted as
ignored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if truth == "" {
				return fmt.Errorf("validate: --truth is required")
			}
			in, err := a.predict(args[0], truth)
			if err != nil {
				return fmt.Errorf("in-class file: %w", err)
			}
			out, err := a.predict(args[1], truth)
			if err != nil {
				return fmt.Errorf("out-of-class file: %w", err)
			}
			c := Confusion{TP: in.yes, FN: in.no, FP: out.yes, TN: out.no}
			printConfusion(cmd.OutOrStdout(), args, truth, c, in.ignored+out.ignored)
			return nil
		},
	}
	cmd.Flags().StringVar(&truth, "truth", "", "group the in-class specimens belong to")
	return cmd
}

type tally struct{ yes, no, ignored int }

// predict counts the specimens of fn classified into group and not.
func (a *app) predict(fn, group string) (t tally, err error) {
	recs, err := specimen.ReadFile(fn)
	if err != nil {
		return
	}
	err = classifyAll(a.classifier, recs, a.cfg.Workers, a.metrics, func(o outcome) error {
		if o.err != nil {
			a.log.Warn("classification incomplete", zap.String("id", o.rec.ID), zap.Error(o.err))
		}
		switch {
		case o.cl == nil:
			t.ignored++
		case strings.EqualFold(o.cl.Group, group):
			t.yes++
		default:
			t.no++
		}
		return nil
	})
	return
}

func printConfusion(w io.Writer, args []string, truth string, c Confusion, ignored int) {
	fmt.Fprintln(w, "In-class file:     ", args[0])
	fmt.Fprintln(w, "Out-of-class file: ", args[1])
	fmt.Fprintln(w, "Group:             ", truth)
	fmt.Fprintln(w, "Total specimens:   ", c.TP+c.FN+c.FP+c.TN)
	if ignored != 0 {
		fmt.Fprintln(w, "Specimens ignored: ", ignored)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "                        emi prediction")
	fmt.Fprintln(w, "                    -----------------------")
	fmt.Fprintln(w, "                     in-class  out-of-class")
	fmt.Fprintf(w, "Actual in-class       %7d       %7d\n", c.TP, c.FN)
	fmt.Fprintf(w, "Actual out-of-class   %7d       %7d\n", c.FP, c.TN)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Matthews correlation coefficient: %.2f\n", c.Matthews())
}
