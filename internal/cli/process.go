package cli

import (
	"github.com/spf13/cobra"
)

type ProcessOptions struct {
	Concurrency int
}

func NewProcessCmd() *cobra.Command {
	opts := &ProcessOptions{}

	cmd := &cobra.Command{
		Use:   "process <transfer-id> [transfer-id...]",
		Short: "Run queued transfers to a terminal state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runTransfers(opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "c", 4, "Transfers processed in parallel")

	return cmd
}
