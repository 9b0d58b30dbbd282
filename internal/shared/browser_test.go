package shared

import (
	"context"
	"slices"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	ctx := context.Background()
	url := "https://secure.soundcloud.com/authorize?state=x"

	t.Run("BROWSER Override", func(t *testing.T) {
		t.Setenv("BROWSER", "firefox --new-window")

		cmd, err := browserCommand(ctx, url)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cmd.Args[0] != "firefox" {
			t.Errorf("expected firefox, got %v", cmd.Args)
		}
		if !slices.Equal(cmd.Args[1:], []string{"--new-window", url}) {
			t.Errorf("unexpected args %v", cmd.Args)
		}
	})

	tests := []struct {
		goos     string
		expected string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "rundll32"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			t.Setenv("BROWSER", "")
			original := getRuntime
			getRuntime = func() string { return tt.goos }
			defer func() { getRuntime = original }()

			cmd, err := browserCommand(ctx, url)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if cmd.Args[0] != tt.expected || cmd.Args[len(cmd.Args)-1] != url {
				t.Errorf("expected %s ... %s, got %v", tt.expected, url, cmd.Args)
			}
		})
	}

	t.Run("Unsupported Platform", func(t *testing.T) {
		t.Setenv("BROWSER", "")
		original := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = original }()

		if err := OpenBrowser(ctx, url); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
