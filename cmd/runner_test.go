package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/twhispr/internal/metrics"
	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/shared"
	tu "github.com/desertthunder/twhispr/internal/testing"
)

// testRunner wires a runner to a fake remote with the journal and metrics
// textfile in a temp dir.
func testRunner(t *testing.T, fake *tu.FakeSoundCloud) (*Runner, *bytes.Buffer, *shared.Config) {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "journal.db")
	config.Metrics.Textfile = filepath.Join(dir, "twhispr.prom")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Client: fake,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	return runner, output, config
}

func run(r *Runner, args ...string) error {
	return r.app().Run(context.Background(), append([]string{"twhispr"}, args...))
}

func writeAsset(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("ID3\x04\x00fake audio"), 0644); err != nil {
		t.Fatalf("failed to write asset: %v", err)
	}
	return path
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			recorder := metrics.NewRecorder()
			fake := tu.NewFakeSoundCloud()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Client:     fake,
				Metrics:    recorder,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.client != fake {
				t.Error("expected client to be set")
			}
			if runner.metrics != recorder {
				t.Error("expected metrics to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config != nil {
				t.Error("expected config to be loaded lazily")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default config path, got %s", runner.configPath)
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.metrics == nil {
				t.Error("expected default metrics recorder to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for _, cmd := range commands {
			names = append(names, cmd.Name)
		}

		for _, expected := range []string{"upload", "dedupe", "playlists", "history", "setup"} {
			if !slices.Contains(names, expected) {
				t.Errorf("expected command %s to be registered, got %v", expected, names)
			}
		}
	})
}

func TestUploadCommand(t *testing.T) {
	t.Run("prints only the track id", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		runner, output, _ := testRunner(t, fake)

		if err := run(runner, "upload", writeAsset(t, "12.mp3"), "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tracks := fake.Tracks()
		if len(tracks) != 1 {
			t.Fatalf("expected one uploaded track, got %d", len(tracks))
		}
		expected := strconv.FormatInt(tracks[0].ID, 10) + "\n"
		if output.String() != expected {
			t.Errorf("expected stdout %q, got %q", expected, output.String())
		}
		if tracks[0].Title != "alice-12" {
			t.Errorf("expected title alice-12, got %s", tracks[0].Title)
		}
	})

	t.Run("second upload reuses the track", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		runner, output, _ := testRunner(t, fake)
		asset := writeAsset(t, "12.mp3")

		for range 2 {
			if err := run(runner, "upload", asset, "alice"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 2 || lines[0] != lines[1] {
			t.Errorf("expected the same id twice, got %q", output.String())
		}
		if fake.Calls.CreateTrack != 1 {
			t.Errorf("expected one create request, got %d", fake.Calls.CreateTrack)
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		runner, output, _ := testRunner(t, tu.NewFakeSoundCloud())

		err := run(runner, "upload", writeAsset(t, "12.mp3"))
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if output.Len() != 0 {
			t.Errorf("expected no stdout, got %q", output.String())
		}
	})

	t.Run("upload failure returns error", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.CreateTrackErr = errors.New("connection reset")
		runner, output, _ := testRunner(t, fake)

		err := run(runner, "upload", writeAsset(t, "12.mp3"), "alice")
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
		if output.Len() != 0 {
			t.Errorf("expected no stdout, got %q", output.String())
		}
	})

	t.Run("attach failure still prints the id", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.PlaylistsErr = errors.New("connection reset")
		fake.PlaylistsErrAfter = 1
		runner, output, _ := testRunner(t, fake)

		if err := run(runner, "upload", writeAsset(t, "12.mp3"), "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tracks := fake.Tracks()
		if len(tracks) != 1 || output.String() != strconv.FormatInt(tracks[0].ID, 10)+"\n" {
			t.Errorf("expected the uploaded id on stdout, got %q", output.String())
		}
	})

	t.Run("remote failures wrap ErrTransport", func(t *testing.T) {
		tests := []struct {
			name      string
			transport http.RoundTripper
		}{
			{"connection", tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
			{"body read", tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": {"application/json"}},
				Body:       &tu.FCloser{},
			}, nil)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := shared.DefaultConfig()
				config.Database.Path = ""
				config.Credentials.SoundCloud.ClientID = "id"
				config.Credentials.SoundCloud.ClientSecret = "secret"
				config.Credentials.SoundCloud.AccessToken = "static"

				output := &bytes.Buffer{}
				runner := NewRunner(RunnerOpts{
					Config:     config,
					HTTPClient: &http.Client{Transport: tt.transport},
					Logger:     shared.NewLogger(io.Discard),
					Output:     output,
				})

				err := run(runner, "--debug-http", "upload", writeAsset(t, "12.mp3"), "alice")
				if !errors.Is(err, shared.ErrTransport) {
					t.Errorf("expected ErrTransport, got %v", err)
				}
				if output.Len() != 0 {
					t.Errorf("expected no stdout, got %q", output.String())
				}
			})
		}
	})

	t.Run("writes metrics textfile", func(t *testing.T) {
		runner, _, config := testRunner(t, tu.NewFakeSoundCloud())

		if err := run(runner, "upload", writeAsset(t, "12.mp3"), "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := tu.MustReadFile(t, config.Metrics.Textfile)
		for _, s := range []string{
			`twhispr_uploads_total{outcome="uploaded"} 1`,
			`twhispr_playlist_attach_total{outcome="created"} 1`,
			`twhispr_last_run_timestamp_seconds{command="upload"}`,
		} {
			if !strings.Contains(content, s) {
				t.Errorf("expected %q in metrics:\n%s", s, content)
			}
		}
	})
}

func TestDedupeCommand(t *testing.T) {
	t.Run("deletes duplicates and prints report", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.AddTrackWithID(1, "alice-1", "1 alice")
		fake.AddTrackWithID(2, "alice-1", "1 alice")
		fake.AddTrackWithID(3, "alice-2", "2 alice")
		runner, output, _ := testRunner(t, fake)

		if err := run(runner, "--no-color", "dedupe", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !slices.Equal(fake.Deleted, []int64{2}) {
			t.Errorf("expected track 2 deleted, got %v", fake.Deleted)
		}
		if !strings.Contains(output.String(), "alice-1,2,deleted,") {
			t.Errorf("expected CSV report, got:\n%s", output.String())
		}
	})

	t.Run("dry run", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.AddTrackWithID(1, "A", "")
		fake.AddTrackWithID(2, "A", "")
		runner, output, _ := testRunner(t, fake)

		if err := run(runner, "dedupe", "--dry-run", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var report struct {
			DryRun bool `json:"dry_run"`
		}
		if err := json.Unmarshal(output.Bytes(), &report); err != nil {
			t.Fatalf("expected JSON report, got %v", err)
		}
		if !report.DryRun || fake.Calls.DeleteTrack != 0 {
			t.Errorf("expected dry run without deletes, got %+v and %d deletes", report, fake.Calls.DeleteTrack)
		}
	})

	t.Run("errors still exit cleanly", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.MyTracksErr = errors.New("timeout")
		runner, output, _ := testRunner(t, fake)

		if err := run(runner, "dedupe"); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if output.Len() != 0 {
			t.Errorf("expected no report, got %q", output.String())
		}
	})

	t.Run("invalid flags exit cleanly", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		runner, output, _ := testRunner(t, fake)

		for _, args := range [][]string{
			{"dedupe", "--format", "xml"},
			{"dedupe", "--playlist", "1", "--author", "alice"},
		} {
			if err := run(runner, args...); err != nil {
				t.Errorf("%v: expected nil error, got %v", args, err)
			}
		}
		if output.Len() != 0 || fake.Calls.MyTracks != 0 {
			t.Errorf("expected no work, got %q", output.String())
		}
	})
}

func TestPlaylistsCommand(t *testing.T) {
	fake := tu.NewFakeSoundCloud()
	fake.AddPlaylist("alice", 1)
	fake.AddPlaylist("alice_2", 2)
	fake.AddPlaylist("bob", 3)
	runner, output, _ := testRunner(t, fake)

	if err := run(runner, "--no-color", "playlists", "alice"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result := output.String()
	if !strings.Contains(result, "* alice_2") {
		t.Errorf("expected alice_2 marked current, got:\n%s", result)
	}
	if strings.Contains(result, "bob") {
		t.Errorf("expected only alice's playlists, got:\n%s", result)
	}
}

func TestHistoryCommand(t *testing.T) {
	t.Run("lists journal entries", func(t *testing.T) {
		runner, output, _ := testRunner(t, tu.NewFakeSoundCloud())

		if err := run(runner, "upload", writeAsset(t, "12.mp3"), "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		output.Reset()

		if err := run(runner, "history", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var events []models.Event
		if err := json.Unmarshal(output.Bytes(), &events); err != nil {
			t.Fatalf("expected JSON history, got %v", err)
		}

		var kinds []models.EventKind
		for _, e := range events {
			kinds = append(kinds, e.Kind)
		}
		if !slices.Contains(kinds, models.EventUploaded) || !slices.Contains(kinds, models.EventPlaylistCreated) {
			t.Errorf("expected upload and playlist entries, got %v", kinds)
		}
	})

	t.Run("journal disabled", func(t *testing.T) {
		runner, _, config := testRunner(t, tu.NewFakeSoundCloud())
		config.Database.Path = ""

		if err := run(runner, "history"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

		if err := run(runner, "--config", path, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := run(runner, "--config", path, "setup", "config"); err == nil {
			t.Error("expected error when the config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		runner, _, config := testRunner(t, tu.NewFakeSoundCloud())

		if err := run(runner, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
	})
}
