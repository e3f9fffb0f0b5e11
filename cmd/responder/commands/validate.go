package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate a catalog directory",
	Long: `Load a catalog directory and report every configuration error at once.
Undefined partials are reported as warnings and do not fail validation.

Examples:
  responder validate ./catalog
  responder validate --catalog ./catalog`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := catalogDirFor(args)
		if err != nil {
			return err
		}

		cat, err := loadLocal(cmd.Context(), dir)
		if err != nil {
			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "Catalog %s is invalid:\n", dir)
			for _, e := range unjoin(err) {
				if e == catalog.ErrInvalidCatalog {
					continue
				}
				fmt.Fprintf(out, "  - %v\n", e)
			}
			return errors.New("catalog validation failed")
		}

		if !quiet {
			out := cmd.OutOrStdout()
			for _, w := range cat.Warnings() {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "Catalog %s is valid: %d states, %d intentions, %d resolutions, %d templates (version %s)\n",
				dir, len(cat.States()), len(cat.Intentions()), len(cat.Resolutions()), len(cat.Templates()), cat.Version())
		}
		return nil
	},
}

// unjoin flattens an errors.Join tree into its leaves.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, unjoin(e)...)
		}
		return out
	}
	return []error{err}
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
