package commands

import (
	"github.com/spf13/cobra"

	"github.com/fouedh91760/a-level-saver-sub001/internal/api"
	"github.com/fouedh91760/a-level-saver-sub001/internal/cli"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "List state definitions in evaluation order",
	Long: `List the catalog's state definitions ordered by priority.

Examples:
  responder states --catalog ./catalog
  responder states --remote --profile prod --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}

		var states []api.StateSummary
		if remote {
			c, err := newClient()
			if err != nil {
				return err
			}
			summary, err := c.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			states = summary.States
		} else {
			dir, err := catalogDirFor(nil)
			if err != nil {
				return err
			}
			cat, err := loadLocal(cmd.Context(), dir)
			if err != nil {
				return err
			}
			for _, st := range cat.States() {
				states = append(states, api.StateSummary{
					Name:        st.Name,
					Priority:    st.Priority,
					Severity:    string(st.Severity),
					Description: st.Description,
					Flags:       st.Flags,
				})
			}
		}

		if quiet {
			return nil
		}
		return cli.PrintStates(cmd.OutOrStdout(), states, f)
	},
}

func init() {
	rootCmd.AddCommand(statesCmd)
}
