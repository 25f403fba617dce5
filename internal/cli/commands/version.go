package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Spycner/brix/internal/update"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display brix version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "brix v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Project scaffolding and token tooling for dbt on Databricks")

			if checker, err := update.NewChecker(); err == nil {
				if notice := checker.Notice(version); notice != "" {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), notice)
				}
			}
		},
	}
}
