package cli

import (
	"github.com/spf13/cobra"

	"github.com/poco-ai/poco-console/pocod/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pocod backend in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(cmd.Context())
		},
	}
}
