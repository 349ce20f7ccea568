package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/poco-ai/poco-console/internals/cliutil"
	"github.com/poco-ai/poco-console/internals/desktop"
	"github.com/poco-ai/poco-console/internals/workbench"
)

func newFilesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "files [session-id]",
		Short: "List the shared files, or a session's workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				files, err := client.GetFiles(cmd.Context(), "")
				if err != nil {
					return err
				}
				cliutil.PrintFiles(cmd.OutOrStdout(), files)
				return nil
			}

			wb := newWorkbench(cmd, client)
			if err := openSession(cmd, wb, args[0]); err != nil {
				return err
			}
			wb.Run(cmd.Context(), wb.FetchFiles())
			cliutil.PrintFiles(cmd.OutOrStdout(), wb.Panel().Files())
			return nil
		},
	}
}

func newArchiveCommand(opts *rootOptions) *cobra.Command {
	var open bool
	var output string
	cmd := &cobra.Command{
		Use:   "archive <session-id>",
		Short: "Get the download link of a finished session's workspace",
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
			wb.Run(cmd.Context(), wb.DownloadArchive())

			out := cmd.OutOrStdout()
			var ready *workbench.Notification
			for _, note := range wb.Notifications() {
				cliutil.PrintNotification(out, note)
				if note.Level == workbench.LevelSuccess && note.URL != "" {
					ready = &note
				}
			}
			if ready == nil {
				return nil
			}

			if output != "" {
				path := archivePath(output, ready.Filename, args[0])
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				n, err := client.Download(cmd.Context(), ready.URL, f)
				if closeErr := f.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					return fmt.Errorf("download archive: %w", err)
				}
				fmt.Fprintf(out, "saved %s (%s)\n", path, humanize.Bytes(uint64(n)))
			}
			if open {
				if err := desktop.OpenURL(ready.URL); err != nil && !errors.Is(err, desktop.ErrUnsupportedPlatform) {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "Open the download link in the browser")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Save the archive to this file or directory")
	return cmd
}

// archivePath resolves -o: a directory receives the server's filename, cut
// to its base name so it cannot escape the directory.
func archivePath(output, filename, sessionID string) string {
	info, err := os.Stat(output)
	if err != nil || !info.IsDir() {
		return output
	}
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." || name == ".." {
		name = fmt.Sprintf("workspace-%s.zip", sessionID)
	}
	return filepath.Join(output, name)
}
