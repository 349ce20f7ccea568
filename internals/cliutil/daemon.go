package cliutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/timeouts"
	"github.com/poco-ai/poco-console/sdk"
)

const stopPollInterval = 150 * time.Millisecond

// StartServer launches the backend in the background. Tests replace it.
var StartServer = startServer

// EnsureServerRunning makes sure a pocod with the same version as this
// binary answers at the client's base url, starting or replacing it when
// needed.
func EnsureServerRunning(ctx context.Context, client *sdk.Client, logger sdk.InfoLogger) error {
	probeCtx, cancel := context.WithTimeout(ctx, timeouts.Probe)
	remoteVersion, err := client.Version(probeCtx)
	cancel()

	if err == nil {
		localVersion := conf.GetConfig().Version
		if strings.TrimSpace(remoteVersion) == strings.TrimSpace(localVersion) {
			return nil
		}
		return replaceServer(ctx, client, remoteVersion, logger)
	}

	if err := StartServer(); err != nil {
		return err
	}
	return waitForServer(ctx, client, logger)
}

func startServer() error {
	path, err := findServeBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(path, "serve")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	return cmd.Process.Release()
}

func waitForServer(ctx context.Context, client *sdk.Client, logger sdk.InfoLogger) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeouts.ServerStart)
	defer cancel()
	if !sdk.WaitForStart(waitCtx, client.BaseURL(), logger) {
		return fmt.Errorf("failed to reach poco server at %s", client.BaseURL())
	}
	return nil
}

func replaceServer(ctx context.Context, client *sdk.Client, remoteVersion string, logger sdk.InfoLogger) error {
	remoteVersion = strings.TrimSpace(remoteVersion)
	shutdownCtx, cancel := context.WithTimeout(ctx, timeouts.SecondShort)
	defer cancel()

	if err := client.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, sdk.ErrShutdownUnsupported) {
			return fmt.Errorf("pocod %s is running; please stop it and retry", remoteVersion)
		}
		return fmt.Errorf("failed to shutdown pocod %s: %w", remoteVersion, err)
	}

	if err := waitForServerStop(ctx, client); err != nil {
		return fmt.Errorf("pocod %s did not stop: %w", remoteVersion, err)
	}

	if err := StartServer(); err != nil {
		return err
	}
	return waitForServer(ctx, client, logger)
}

func waitForServerStop(ctx context.Context, client *sdk.Client) error {
	stopCtx, cancel := context.WithTimeout(ctx, timeouts.SecondShort)
	defer cancel()
	for {
		if !sdk.IsRunning(client.BaseURL()) {
			return nil
		}
		select {
		case <-stopCtx.Done():
			return errors.New("failed to stop pocod")
		case <-time.After(stopPollInterval):
		}
	}
}

func findServeBinary() (string, error) {
	executable, err := os.Executable()
	if err == nil && executable != "" {
		return executable, nil
	}

	path, err := exec.LookPath("poco")
	if err != nil {
		return "", fmt.Errorf("poco not found in PATH")
	}
	return path, nil
}
