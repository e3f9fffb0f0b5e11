package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fouedh91760/a-level-saver-sub001/internal/cli"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask a running server to reload its catalog",
	Long: `Trigger POST /v1/catalog/reload. An invalid catalog is rejected by the server
and the previous one stays active.

Examples:
  responder reload --profile prod
  responder reload --base-url http://localhost:8080 --api-key admin-123`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.Reload(cmd.Context())
		if err != nil {
			return fmt.Errorf("reload failed: %w", err)
		}
		if quiet {
			return nil
		}
		if f != cli.FormatTable {
			return cli.PrintValue(cmd.OutOrStdout(), res, f)
		}
		out := cmd.OutOrStdout()
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		if res.Changed {
			fmt.Fprintf(out, "Catalog reloaded, version %s\n", res.Version)
		} else {
			fmt.Fprintf(out, "Catalog unchanged, version %s\n", res.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}
