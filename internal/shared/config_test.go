package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Playlist.Capacity != 200 {
			t.Errorf("expected playlist capacity 200, got %d", config.Playlist.Capacity)
		}
		if config.Playlist.Sharing != "public" {
			t.Errorf("expected public sharing, got %s", config.Playlist.Sharing)
		}
		if !config.Playlist.MatchTitle {
			t.Error("expected title matching to be enabled by default")
		}
		if config.Credentials.SoundCloud.BaseURL != "https://api.soundcloud.com" {
			t.Errorf("unexpected base URL %s", config.Credentials.SoundCloud.BaseURL)
		}
		if config.Database.Path != "" {
			t.Errorf("expected journal to be disabled by default, got %s", config.Database.Path)
		}
		if config.Dedupe.Workers != 1 {
			t.Errorf("expected a single dedupe worker, got %d", config.Dedupe.Workers)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatalf("config file should exist: %v", err)
		}
		if string(data) != string(exampleConf) {
			t.Error("created config should match the embedded example")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig TOML", func(t *testing.T) {
		path := writeConfig(t, "config.toml", `[credentials.soundcloud]
client_id = "cid"
client_secret = "secret"
username = "user"
password = "pass"

[playlist]
capacity = 150

[database]
path = "/tmp/journal.db"
`)

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		sc := config.Credentials.SoundCloud
		if sc.ClientID != "cid" || sc.ClientSecret != "secret" || sc.Username != "user" || sc.Password != "pass" {
			t.Errorf("unexpected credentials %+v", sc)
		}
		if config.Playlist.Capacity != 150 {
			t.Errorf("expected capacity 150, got %d", config.Playlist.Capacity)
		}
		if config.Playlist.Sharing != "public" {
			t.Errorf("expected default sharing to survive, got %q", config.Playlist.Sharing)
		}
		if config.Database.Path != "/tmp/journal.db" {
			t.Errorf("expected database path, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig legacy YAML", func(t *testing.T) {
		path := writeConfig(t, "config.yml", `client_id: legacy-id
client_secret: legacy-secret
username: legacy-user
password: legacy-pass
`)

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		sc := config.Credentials.SoundCloud
		if sc.ClientID != "legacy-id" || sc.Username != "legacy-user" || sc.Password != "legacy-pass" {
			t.Errorf("legacy keys not applied: %+v", sc)
		}
		if config.Playlist.Capacity != 200 {
			t.Errorf("expected default capacity, got %d", config.Playlist.Capacity)
		}
	})

	t.Run("LoadConfig nested YAML", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", `credentials:
  soundcloud:
    client_id: cid
    client_secret: secret
    access_token: token
dedupe:
  workers: 4
`)

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Credentials.SoundCloud.AccessToken != "token" {
			t.Errorf("expected access token, got %q", config.Credentials.SoundCloud.AccessToken)
		}
		if config.Dedupe.Workers != 4 {
			t.Errorf("expected 4 workers, got %d", config.Dedupe.Workers)
		}
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("TWHISPR_CLIENT_SECRET", "from-env")
		t.Setenv("TWHISPR_ACCESS_TOKEN", "env-token")

		path := writeConfig(t, "config.toml", `[credentials.soundcloud]
client_id = "cid"
client_secret = "file-secret"
`)

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Credentials.SoundCloud.ClientSecret != "from-env" {
			t.Errorf("expected env secret, got %s", config.Credentials.SoundCloud.ClientSecret)
		}
		if config.Credentials.SoundCloud.AccessToken != "env-token" {
			t.Errorf("expected env token, got %s", config.Credentials.SoundCloud.AccessToken)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		tc := []struct {
			name    string
			content string
		}{
			{
				name: "missing client id",
				content: `[credentials.soundcloud]
client_secret = "s"
access_token = "t"
`,
			},
			{
				name: "no token and no username",
				content: `[credentials.soundcloud]
client_id = "c"
client_secret = "s"
`,
			},
			{
				name: "username without password",
				content: `[credentials.soundcloud]
client_id = "c"
client_secret = "s"
username = "u"
`,
			},
			{
				name: "capacity above service limit",
				content: `[credentials.soundcloud]
client_id = "c"
client_secret = "s"
access_token = "t"

[playlist]
capacity = 500
`,
			},
			{
				name: "unknown sharing mode",
				content: `[credentials.soundcloud]
client_id = "c"
client_secret = "s"
access_token = "t"

[playlist]
sharing = "friends"
`,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := LoadConfig(writeConfig(t, "config.toml", tt.content))
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Malformed file", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "config.toml", "[credentials\nclient_id ="))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		for _, name := range []string{"config.toml", "config.yaml"} {
			t.Run(name, func(t *testing.T) {
				config := DefaultConfig()
				config.Credentials.SoundCloud.ClientID = "cid"
				config.Credentials.SoundCloud.ClientSecret = "secret"
				config.Credentials.SoundCloud.AccessToken = "saved-token"
				config.Playlist.Capacity = 120

				path := filepath.Join(t.TempDir(), name)
				if err := SaveConfig(path, config); err != nil {
					t.Fatalf("failed to save config: %v", err)
				}

				loaded, err := LoadConfig(path)
				if err != nil {
					t.Fatalf("failed to load saved config: %v", err)
				}
				if loaded.Credentials.SoundCloud.AccessToken != "saved-token" || loaded.Playlist.Capacity != 120 {
					t.Errorf("unexpected round trip %+v", loaded)
				}
			})
		}
	})

	t.Run("SaveConfig nil", func(t *testing.T) {
		if err := SaveConfig(filepath.Join(t.TempDir(), "c.toml"), nil); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
