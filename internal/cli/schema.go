package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Output string // output file path
}

// SchemaSummary describes a loaded schema.
type SchemaSummary struct {
	Fingerprint string         `json:"fingerprint"`
	Tables      []TableSummary `json:"tables"`
}

// TableSummary describes one registered table.
type TableSummary struct {
	Name        string          `json:"name"`
	Owner       string          `json:"owner"`
	Fingerprint string          `json:"fingerprint"`
	Columns     []ColumnSummary `json:"columns"`
}

// ColumnSummary describes one column.
type ColumnSummary struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Cardinality string `json:"cardinality"`
	Link        string `json:"link,omitempty"`
	Property    string `json:"property"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema <tables-dir>...",
		Short: "Compile and inspect CUE table schemas",
		Long: `Compile CUE table definitions and register them into a fresh registry.

Reports every table with its columns and the schema fingerprint that
journals record. With --output, writes the summary as canonical JSON.

Examples:
  ontostore schema ./tables
  ontostore schema ./tables ./more-tables --format json
  ontostore schema ./tables -o schema.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runSchema(opts *SchemaOptions, dirs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadTables(dirs...)
	if err != nil {
		return formatter.LoadFailure(err)
	}
	opts.Logger.Debug().
		Int("files", loaded.FileCount).
		Int("tables", len(loaded.Tables)).
		Msg("schema loaded")

	summary := summarize(loaded.Registry)

	if opts.Output != "" {
		if err := writeSummary(summary, opts.Output); err != nil {
			return formatter.LoadFailure(&LoadError{
				Code:    ErrCodeWriteFailed,
				Message: fmt.Sprintf("writing output file: %v", err),
			})
		}
	}

	return formatter.Success(summary, func(io.Writer) {
		outputSchemaText(formatter, summary, opts.Output)
	})
}

// summarize builds a summary of every table in reg, in name order.
func summarize(reg *schema.Registry) SchemaSummary {
	tables := reg.Tables()
	summary := SchemaSummary{
		Fingerprint: reg.Fingerprint(),
		Tables:      make([]TableSummary, 0, len(tables)),
	}
	for _, t := range tables {
		ts := TableSummary{
			Name:        t.Name,
			Owner:       t.Owner,
			Fingerprint: t.Fingerprint(),
			Columns:     make([]ColumnSummary, 0, len(t.Columns)),
		}
		for _, c := range t.Columns {
			ts.Columns = append(ts.Columns, ColumnSummary{
				Name:        c.Name,
				Type:        string(c.Type),
				Cardinality: string(c.Cardinality),
				Link:        string(c.Link),
				Property:    c.Property,
			})
		}
		summary.Tables = append(summary.Tables, ts)
	}
	return summary
}

// canonical converts the summary for canonical JSON serialization.
func (s SchemaSummary) canonical() map[string]any {
	tables := make([]any, len(s.Tables))
	for i, t := range s.Tables {
		cols := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			col := map[string]any{
				"name":        c.Name,
				"type":        c.Type,
				"cardinality": c.Cardinality,
				"property":    c.Property,
			}
			if c.Link != "" {
				col["link"] = c.Link
			}
			cols[j] = col
		}
		tables[i] = map[string]any{
			"name":        t.Name,
			"owner":       t.Owner,
			"fingerprint": t.Fingerprint,
			"columns":     cols,
		}
	}
	return map[string]any{
		"fingerprint": s.Fingerprint,
		"tables":      tables,
	}
}

// writeSummary writes the summary to a file as canonical JSON.
func writeSummary(summary SchemaSummary, path string) error {
	data, err := ir.MarshalCanonical(summary.canonical())
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func outputSchemaText(formatter *OutputFormatter, summary SchemaSummary, outputFile string) {
	w := formatter.Writer

	columns := 0
	for _, t := range summary.Tables {
		columns += len(t.Columns)
	}
	fmt.Fprintf(w, "✓ Loaded %d table(s), %d column(s)\n", len(summary.Tables), columns)
	fmt.Fprintf(w, "Fingerprint: %s\n\n", summary.Fingerprint)

	for _, t := range summary.Tables {
		if t.Owner != t.Name {
			fmt.Fprintf(w, "%s (owner %s)\n", t.Name, t.Owner)
		} else {
			fmt.Fprintln(w, t.Name)
		}
		for _, c := range t.Columns {
			var extra []string
			if c.Link != "" {
				extra = append(extra, c.Link)
			}
			if c.Property != c.Name {
				extra = append(extra, "property "+c.Property)
			}
			line := fmt.Sprintf("  %-16s %-7s %-12s", c.Name, c.Type, c.Cardinality)
			if len(extra) > 0 {
				line += " " + strings.Join(extra, ", ")
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
		formatter.VerboseLog("%s fingerprint %s", t.Name, t.Fingerprint)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote canonical schema to %s\n", outputFile)
	}
}
