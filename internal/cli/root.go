// Package cli wires the sqlport commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the build version string, overridable at link time.
var Version = "dev"

// NewRootCommand creates the root command for the sqlport CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlport",
		Short: "Line-oriented bridge to an embedded SQL engine",
		Long: `sqlport lets a host process drive an embedded SQL engine over
newline-delimited JSON: one command per line on stdin, one response per line
on stdout. Prepared statements are held server-side and referred to by small
integer handles.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sqlport version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "sqlport "+Version)
		},
	}
}
