package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/env"
	"github.com/poco-ai/poco-console/internals/logging"
	"github.com/poco-ai/poco-console/internals/term"
	"github.com/poco-ai/poco-console/tui"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [session-id]",
		Short: "Open the interactive workbench",
		Long:  "Open the interactive workbench. Without a session id a form asks for the task prompt first.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runChat(cmd, opts, id)
		},
	}
}

func runChat(cmd *cobra.Command, opts *rootOptions, sessionID string) error {
	if !term.Interactive() {
		return errors.New("chat needs an interactive terminal; use show, send or new instead")
	}
	client, err := connect(cmd, opts)
	if err != nil {
		return err
	}
	config := conf.GetConfig()
	logger, logFile, err := logging.NewFile(config.Server.DataDir, logging.ParseLevel(env.Get().LOG_LEVEL))
	if err != nil {
		return err
	}
	defer logFile.Close()
	return tui.Run(cmd.Context(), client, config.TUI, sessionID, logger)
}
