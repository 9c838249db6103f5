package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	atoms "github.com/goliatone/go-atoms"
	"github.com/goliatone/go-atoms/internal/cli/config"
	"github.com/goliatone/go-atoms/internal/cli/ui"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <file.json>",
		Short: "Describe the store defined by a JSON document",
		Long: `Define a store from a JSON document and print its export identifiers
and the accessors generated for every key.

The document is either a plain object of initial values or
{"name": "...", "values": {...}, "computed": {"key": "expression"}}.

Flags can also be set through ATOMS_NAME, ATOMS_FORMAT and ATOMS_NO_COLOR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			doc, err := LoadDocument(args[0])
			if err != nil {
				return err
			}
			store, err := doc.Define(cfg.Name, atoms.WithLogger(atoms.NewLogger()))
			if err != nil {
				return fmt.Errorf("failed to define store: %w", err)
			}
			return writeSchema(cmd.OutOrStdout(), store.Schema(), cfg)
		},
	}

	cmd.Flags().String("name", "", "store name (overrides the document name)")
	cmd.Flags().StringP("format", "f", config.FormatTable, "output format: table or json")
	cmd.Flags().Bool("no-color", false, "disable colored output")
	return cmd
}

func writeSchema(w io.Writer, schema atoms.Schema, cfg *config.Config) error {
	if cfg.Format == config.FormatJSON {
		payload, err := schema.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	noColor := cfg.NoColor || color.NoColor
	ui.Heading(w, noColor, "Provider", schema.Identifiers.Provider)
	ui.Heading(w, noColor, "Meta", schema.Identifiers.Meta)
	ui.Heading(w, noColor, "Hook", schema.Identifiers.Hook)
	fmt.Fprintln(w)

	table := ui.NewTable(w, noColor, "KEY", "TYPE", "KIND", "WRITABLE", "EXTENDED", "ACCESSORS")
	for _, desc := range schema.Keys {
		table.AddRow(
			desc.Key,
			desc.Type,
			desc.Kind,
			ui.YesNo(desc.Writable, noColor),
			ui.YesNo(desc.Extended, noColor),
			strings.Join(desc.Accessors, ", "),
		)
	}
	table.Render()
	return nil
}
