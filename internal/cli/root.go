package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pipebird",
		Short: "Pipebird - incremental data sharing engine",
		Long: `Pipebird replicates newly changed rows from tenant source databases into
consumer destinations. Each share points at a provisioned S3 bucket or at the
consumer's own Redshift or Snowflake warehouse.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewProcessCmd())

	return rootCmd
}
