package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/poco-ai/poco-console/internals/cliutil"
	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/workbench"
)

var errEmptyPrompt = errors.New("prompt is empty")

func newNewCommand(opts *rootOptions) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "new <prompt>",
		Short: "Submit a task and print the created session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			wb := newWorkbench(cmd, client)
			create := wb.Create(strings.Join(args, " "))
			if create == nil {
				return errEmptyPrompt
			}
			if !wb.Run(cmd.Context(), create) {
				return errors.New("failed to create session")
			}
			if wait {
				if err := waitUntilDone(cmd, wb); err != nil {
					return err
				}
			}
			cliutil.PrintSession(cmd.OutOrStdout(), wb.Session())
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the session reaches 100%")
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	var withMessages bool
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's progress, todos and artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			wb := newWorkbench(cmd, client)
			if err := openSession(cmd, wb, args[0]); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			cliutil.PrintSession(out, wb.Session())
			if withMessages {
				wb.Run(cmd.Context(), wb.History())
				fmt.Fprintln(out)
				cliutil.PrintMessages(out, wb.Log().Messages(), time.Now())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&withMessages, "messages", "m", false, "Also print the chat log")
	return cmd
}

func newSendCommand(opts *rootOptions) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "send <session-id> <message>",
		Short: "Send a follow-up message to a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			wb := newWorkbench(cmd, client)
			if err := openSession(cmd, wb, args[0]); err != nil {
				return err
			}
			wb.Run(cmd.Context(), wb.History())

			before := wb.Log().Len()
			send := wb.Send(strings.Join(args[1:], " "))
			if send == nil {
				return errors.New("message is empty")
			}
			wb.Run(cmd.Context(), send)
			if wait {
				if err := waitForReplies(cmd, wb); err != nil {
					return err
				}
			}
			cliutil.PrintMessages(cmd.OutOrStdout(), wb.Log().Messages()[before:], time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until streaming replies complete")
	return cmd
}

func pollInterval() time.Duration {
	interval := conf.GetConfig().TUI.PollIntervalDuration()
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return interval
}

func waitUntilDone(cmd *cobra.Command, wb *workbench.Workbench) error {
	last, failures := -1, 0
	for !wb.Session().Done() {
		if progress := wb.Session().Progress(); progress != last {
			fmt.Fprintf(cmd.ErrOrStderr(), "progress: %d%% %s\n", progress, wb.Session().CurrentStep())
			last = progress
		}
		if err := sleep(cmd, pollInterval()); err != nil {
			return err
		}
		if wb.Run(cmd.Context(), wb.Refresh()) {
			failures = 0
			continue
		}
		if failures++; failures >= maxRefreshFailures {
			return fmt.Errorf("session %s stopped responding", wb.SessionID())
		}
	}
	return nil
}

const maxRefreshFailures = 5

func waitForReplies(cmd *cobra.Command, wb *workbench.Workbench) error {
	for {
		poll := wb.PollMessages()
		if poll == nil {
			return nil
		}
		if err := sleep(cmd, pollInterval()); err != nil {
			return err
		}
		wb.Run(cmd.Context(), poll)
	}
}

func sleep(cmd *cobra.Command, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	case <-timer.C:
		return nil
	}
}
