package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
	"github.com/fouedh91760/a-level-saver-sub001/internal/cli"
	"github.com/fouedh91760/a-level-saver-sub001/internal/client"
	"github.com/fouedh91760/a-level-saver-sub001/internal/store"
)

var (
	// Global flags
	baseURL     string
	apiKey      string
	profileName string
	format      string
	catalogDir  string
	remote      bool
	quiet       bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "responder",
	Short: "Operate the state resolution and template rendering engine",
	Long: `Responder validates catalogs, inspects states and renders responses.

Local commands read a catalog directory (catalog.yaml plus templates/ and
partials/). With --remote they talk to a running server instead. Defaults for
the catalog directory, output format, server and database come from the active
profile in ~/.responder/config.yaml (see "responder config").

Examples:
  responder validate ./catalog
  responder states --catalog ./catalog --format json
  responder respond --facts case.json --intention ASK_STATUS
  responder respond --remote --profile prod --facts case.json --intention ASK_STATUS
  responder publish ./catalog --db-dsn postgres://...
  responder reload --profile prod`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the responder API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Admin API key")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Profile from the CLI config (default: the config's default_profile)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Output format (table, json, yaml); defaults to the profile's")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog", "", "Catalog directory for local commands; defaults to the profile's")
	rootCmd.PersistentFlags().BoolVar(&remote, "remote", false, "Query a running server instead of a local catalog")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}

// activeProfile resolves the selected profile with environment variables and flags
// layered on top.
func activeProfile() (cli.Profile, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return cli.Profile{}, err
	}
	p, _, err := cfg.Resolve(profileName, cli.Overrides{
		CatalogDir:  catalogDir,
		Format:      format,
		BaseURL:     baseURL,
		APIKey:      apiKey,
		DatabaseDSN: dbDSN,
	})
	if err != nil {
		return cli.Profile{}, fmt.Errorf("configuration error: %w", err)
	}
	return p, nil
}

func outputFormat() (cli.OutputFormat, error) {
	p, err := activeProfile()
	if err != nil {
		return "", err
	}
	return cli.ParseFormat(p.Format)
}

// catalogDirFor returns the directory given as the only argument, else the profile's.
func catalogDirFor(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	p, err := activeProfile()
	if err != nil {
		return "", err
	}
	return p.CatalogDir, nil
}

// loadLocal reads and validates the catalog in dir.
func loadLocal(ctx context.Context, dir string) (*catalog.Catalog, error) {
	raw, err := store.NewFileStore(dir).Load(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Load(raw)
}

// newClient builds an API client for the active profile.
func newClient() (*client.Client, error) {
	p, err := activeProfile()
	if err != nil {
		return nil, err
	}
	if err := p.RequireServer(); err != nil {
		return nil, err
	}
	return client.NewClient(p.BaseURL, p.APIKey), nil
}
