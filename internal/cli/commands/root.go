package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// NewRootCommand creates the atomsctl root command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "atomsctl",
		Short: "Inspect atom store definitions",
		Long: color.CyanString(`atomsctl - atom store inspector

Defines a store from a JSON document and prints the generated export
identifiers and per-key accessors.`),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewDescribeCommand())
	return rootCmd
}
