package shared

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommand returns the command that opens url, honoring $BROWSER.
func browserCommand(ctx context.Context, url string) (*exec.Cmd, error) {
	if browser := strings.TrimSpace(os.Getenv("BROWSER")); browser != "" {
		fields := strings.Fields(browser)
		return exec.CommandContext(ctx, fields[0], append(fields[1:], url)...), nil
	}

	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.CommandContext(ctx, "open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.CommandContext(ctx, "xdg-open", url), nil
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens url in the user's browser without waiting for it to exit.
func OpenBrowser(ctx context.Context, url string) error {
	cmd, err := browserCommand(ctx, url)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
