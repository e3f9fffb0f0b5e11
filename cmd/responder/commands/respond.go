package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fouedh91760/a-level-saver-sub001/internal/cli"
	"github.com/fouedh91760/a-level-saver-sub001/internal/engine"
	"github.com/fouedh91760/a-level-saver-sub001/internal/intent"
	"github.com/fouedh91760/a-level-saver-sub001/internal/responder"
	"github.com/fouedh91760/a-level-saver-sub001/internal/validation"
)

var (
	respondFacts     string
	respondPrimary   string
	respondSecondary []string
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Detect, resolve and render a response for one case",
	Long: `Run the full pipeline for a case described in a facts file (JSON or YAML,
"-" for stdin) and print the selection and the rendered text.

Examples:
  responder respond --facts case.json --intention ASK_STATUS
  responder respond --facts case.yaml --intention REPORT_DATE --secondary ASK_SESSION
  cat case.json | responder respond --facts - --intention ASK_STATUS --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}

		if res := validation.ValidateIntention(validation.IntentionParams{
			Primary:   respondPrimary,
			Secondary: respondSecondary,
		}); !res.Valid {
			field, msg := res.First()
			return fmt.Errorf("invalid %s: %s", field, msg)
		}
		in := intent.New(respondPrimary, respondSecondary, nil)

		facts, err := readFacts(cmd.InOrStdin(), respondFacts)
		if err != nil {
			return err
		}

		var resp *responder.Response
		if remote {
			c, err := newClient()
			if err != nil {
				return err
			}
			if resp, err = c.Respond(cmd.Context(), facts, in); err != nil {
				return err
			}
		} else {
			dir, err := catalogDirFor(nil)
			if err != nil {
				return err
			}
			cat, err := loadLocal(cmd.Context(), dir)
			if err != nil {
				return err
			}
			r := responder.New(responder.Static{C: cat})
			out := r.Respond(cmd.Context(), facts, in)
			resp = &out
		}

		if quiet {
			return nil
		}
		return cli.PrintResponse(cmd.OutOrStdout(), resp, f)
	},
}

// readFacts decodes a JSON or YAML facts document from path, or stdin for "-".
// An empty path yields empty facts.
func readFacts(stdin io.Reader, path string) (engine.Context, error) {
	facts := engine.Context{}
	if path == "" {
		return facts, nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, validation.MaxFactsSize+1))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}
	if res := validation.ValidateFactsSize(len(data)); !res.Valid {
		_, msg := res.First()
		return nil, fmt.Errorf("invalid facts: %s", msg)
	}

	// YAML is a superset of JSON
	if err := yaml.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("decode facts: %w", err)
	}
	return facts, nil
}

func init() {
	rootCmd.AddCommand(respondCmd)

	respondCmd.Flags().StringVar(&respondFacts, "facts", "", "Facts file (JSON or YAML), - for stdin")
	respondCmd.Flags().StringVar(&respondPrimary, "intention", "", "Primary intention (required)")
	respondCmd.Flags().StringSliceVar(&respondSecondary, "secondary", nil, "Secondary intentions, in order")
	_ = respondCmd.MarkFlagRequired("intention")
}
