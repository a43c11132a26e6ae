// Public domain.

package emiprog

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soniakeys/emi/registry"
)

func (a *app) registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the specimen registry",
		Long: `The registry is a directory of specimen records, one JSON file each,
with indices by group, repository, recovery year and country.  Its
location is registry.dir (--registry).`,
	}
	open := func() (*registry.Registry, error) {
		return registry.Open(a.cfg.RegistryDir, a.log)
	}

	add := &cobra.Command{
		Use:   "add <file>...",
		Short: "Import specimens from JSON, YAML or CSV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := open()
			if err != nil {
				return err
			}
			total := 0
			for _, fn := range args {
				n, err := r.Import(fn)
				if err != nil {
					return err
				}
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d specimens added\n", total)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a specimen record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := open()
			if err != nil {
				return err
			}
			rec, ok, err := r.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("registry: no specimen %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}

	query := &cobra.Command{
		Use:   "query [field=value | min_field=x | max_field=x]...",
		Short: "List specimens matching all filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := registry.ParseFilter(args)
			if err != nil {
				return err
			}
			r, err := open()
			if err != nil {
				return err
			}
			recs, err := r.Query(f)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-4s %s\n", rec.ID, rec.Group, rec.Name)
			}
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := open()
			if err != nil {
				return err
			}
			s, err := r.Stats()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s)
		},
	}

	var out string
	exp := &cobra.Command{
		Use:   "export --out <file> <id>...",
		Short: "Write specimen records to a JSON file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := open()
			if err != nil {
				return err
			}
			n, err := r.Export(args, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d specimens exported\n", n)
			return nil
		},
	}
	exp.Flags().StringVar(&out, "out", "specimens.json", "output file")

	cmd.AddCommand(add, get, query, stats, exp)
	return cmd
}
