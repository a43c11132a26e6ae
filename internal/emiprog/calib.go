// Public domain.

package emiprog

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/soniakeys/emi/calib"
)

func (a *app) calibCmd() *cobra.Command {
	var out string
	var show bool
	cmd := &cobra.Command{
		Use:   "calib",
		Short: "Write the calibration snapshot",
		Long: `Calib writes the active calibration tables, the defaults with any
overrides from calib.file applied, as a binary snapshot that later runs
can load with --calib.  With --show the tables are printed as YAML
instead, in the form accepted as overrides.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if show {
				b, err := yaml.Marshal(a.tables)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := calib.WriteFile(out, a.tables); err != nil {
				return err
			}
			a.log.Info("calibration snapshot written", zap.String("file", out))
			fmt.Fprintln(cmd.OutOrStdout(), "Calibration written to", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", calib.Sfn, "snapshot file")
	cmd.Flags().BoolVar(&show, "show", false, "print the tables as YAML")
	return cmd
}
