package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/poco-ai/poco-console/internals/cliutil"
	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/env"
	"github.com/poco-ai/poco-console/internals/logging"
	"github.com/poco-ai/poco-console/internals/workbench"
	"github.com/poco-ai/poco-console/sdk"
)

type rootOptions struct {
	baseURL string
	noStart bool
}

// NewRootCommand builds the poco command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "poco",
		Short:         "Terminal console for the poco assistant workbench",
		Long:          `poco talks to the pocod backend: create sessions, follow their progress, chat, and browse or download the workspace.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, "")
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Backend url (defaults to POCO_BASE_URL or the local daemon)")
	rootCmd.PersistentFlags().BoolVar(&opts.noStart, "no-start", false, "Do not start a local pocod when none is running")

	rootCmd.AddCommand(
		newServeCommand(),
		newNewCommand(opts),
		newShowCommand(opts),
		newSendCommand(opts),
		newFilesCommand(opts),
		newArchiveCommand(opts),
		newChatCommand(opts),
		newVersionCommand(opts),
	)
	return rootCmd
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect returns a client for the backend, starting a local daemon when
// allowed and needed.
func connect(cmd *cobra.Command, opts *rootOptions) (*sdk.Client, error) {
	clientOpts := []sdk.Option{sdk.WithTimeout(conf.GetConfig().Client.RequestTimeoutDuration())}
	if opts.baseURL != "" {
		clientOpts = append(clientOpts, sdk.WithBaseURL(opts.baseURL))
	}
	client := sdk.NewClient(clientOpts...)
	if opts.noStart {
		return client, nil
	}
	if err := cliutil.EnsureServerRunning(cmd.Context(), client, cliLogger(cmd)); err != nil {
		return nil, err
	}
	return client, nil
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), logging.ParseLevel(env.Get().LOG_LEVEL))
}

func newWorkbench(cmd *cobra.Command, client *sdk.Client) *workbench.Workbench {
	return workbench.New(client, workbench.WithLogger(cliLogger(cmd)))
}

// openSession loads id into wb and fails when the backend did not return it.
func openSession(cmd *cobra.Command, wb *workbench.Workbench, id string) error {
	wb.Run(cmd.Context(), wb.Open(id))
	if wb.Session().Session() == nil {
		return fmt.Errorf("session %s could not be loaded", id)
	}
	return nil
}
