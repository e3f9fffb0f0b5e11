package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fouedh91760/a-level-saver-sub001/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI profiles",
	Long: `Manage the profiles in ~/.responder/config.yaml ($RESPONDER_CONFIG overrides the
location). A profile holds the catalog directory, the output format, the server
base URL and admin key, and the database DSN used by publish and revisions.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Create a configuration file with a "local" profile (./catalog,
http://localhost:8080) and a "prod" profile to fill in.

Example:
  responder config init`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cli.InitConfig()
		if err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Default profile: %s\n", cfg.DefaultProfile)
		for _, name := range cfg.Names() {
			fmt.Fprintf(out, "\n%s:\n", name)
			for _, kv := range cfg.Profiles[name].Masked() {
				if kv[1] != "" {
					fmt.Fprintf(out, "  %-9s %s\n", kv[0]+":", kv[1])
				}
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <profile.key> <value>",
	Short: "Set a profile value",
	Long: `Set one value of a profile, creating the profile if needed.
Keys: catalog, format, base_url, api_key, db_dsn.

Examples:
  responder config set local.catalog ./examples/catalog
  responder config set prod.base_url https://responder.example.com
  responder config set prod.format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, key, ok := strings.Cut(args[0], ".")
		if !ok || name == "" {
			return fmt.Errorf("invalid key %q, expected 'profile.key' (e.g., 'local.catalog')", args[0])
		}

		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		p := cfg.Profiles[name]
		if err := p.Set(key, args[1]); err != nil {
			return err
		}
		cfg.Profiles[name] = p
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s.%s\n", name, key)
		return nil
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use <profile>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if _, ok := cfg.Profiles[args[0]]; !ok {
			return fmt.Errorf("profile %q not found (known: %s)", args[0], strings.Join(cfg.Names(), ", "))
		}
		cfg.DefaultProfile = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default profile is now %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configListCmd, configSetCmd, configUseCmd)
}
