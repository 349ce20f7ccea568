package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/timeouts"
	"github.com/poco-ai/poco-console/sdk"
)

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version and the running server's version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "poco: %s\n", conf.GetConfig().Version)

			clientOpts := []sdk.Option{}
			if opts.baseURL != "" {
				clientOpts = append(clientOpts, sdk.WithBaseURL(opts.baseURL))
			}
			client := sdk.NewClient(clientOpts...)
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.SecondShort)
			defer cancel()
			if remote, err := client.Version(ctx); err == nil {
				fmt.Fprintf(out, "pocod: %s (%s)\n", remote, client.BaseURL())
			} else {
				fmt.Fprintf(out, "pocod: not running (%s)\n", client.BaseURL())
			}
			return nil
		},
	}
}
