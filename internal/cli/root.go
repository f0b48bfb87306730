package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the agrihub command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agrihub",
		Short:         "Contract-farming marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	return cmd
}
