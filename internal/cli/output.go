package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/fouedh91760/a-level-saver-sub001/internal/api"
	"github.com/fouedh91760/a-level-saver-sub001/internal/responder"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// PrintStates outputs state definitions in the specified format
func PrintStates(w io.Writer, states []api.StateSummary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]api.StateSummary{"states": states})
	case FormatYAML:
		return printYAML(w, map[string][]api.StateSummary{"states": states})
	case FormatTable:
		return printStateTable(w, states)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintResponse outputs one pipeline result in the specified format. The table
// format prints the selection as a table followed by the rendered text.
func PrintResponse(w io.Writer, resp *responder.Response, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, resp)
	case FormatYAML:
		return printYAML(w, resp)
	case FormatTable:
		if err := printResponseTable(w, resp); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\n%s\n", resp.Text)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintValue outputs any value as JSON or YAML; the table format falls back to YAML.
func PrintValue(w io.Writer, v any, format OutputFormat) error {
	if format == FormatJSON {
		return printJSON(w, v)
	}
	return printYAML(w, v)
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data any) error {
	// Round-trip through JSON so yaml output uses the json field names.
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(generic)
}

func printStateTable(w io.Writer, states []api.StateSummary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Priority", "Severity", "Flags", "Description")

	for _, st := range states {
		description := st.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}
		if err := table.Append(
			st.Name,
			strconv.Itoa(st.Priority),
			st.Severity,
			formatFlags(st.Flags),
			description,
		); err != nil {
			return err
		}
	}

	return table.Render()
}

func printResponseTable(w io.Writer, resp *responder.Response) error {
	table := tablewriter.NewWriter(w)
	table.Header("Template", "Tier", "State", "States", "Flags", "Issues")

	sel := resp.Selection
	if err := table.Append(
		resp.TemplateID,
		string(sel.Tier),
		sel.State,
		strings.Join(resp.States, ", "),
		formatFlags(resp.Flags),
		strconv.Itoa(len(resp.Issues)),
	); err != nil {
		return err
	}
	return table.Render()
}

// formatFlags renders a flag map as "a, !b" in key order.
func formatFlags(flags map[string]bool) string {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if !flags[k] {
			keys[i] = "!" + k
		}
	}
	return strings.Join(keys, ", ")
}
