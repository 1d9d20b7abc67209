package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "recallkit.db" {
		t.Errorf("DBPath = %q, want recallkit.db", cfg.DBPath)
	}
	if cfg.Sync.Interval != 5*time.Minute {
		t.Errorf("Sync.Interval = %v, want 5m", cfg.Sync.Interval)
	}
	if cfg.Sync.MaxRetries != 5 {
		t.Errorf("Sync.MaxRetries = %d, want 5", cfg.Sync.MaxRetries)
	}
	if cfg.Scheduler.DesiredRetention != 0.9 {
		t.Errorf("Scheduler.DesiredRetention = %v, want 0.9", cfg.Scheduler.DesiredRetention)
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `db_path: /tmp/cards.db
web:
  addr: "127.0.0.1:9999"
sync:
  interval: 30s
  max_retries: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/cards.db" {
		t.Errorf("DBPath = %q, want /tmp/cards.db", cfg.DBPath)
	}
	if cfg.Web.Addr != "127.0.0.1:9999" {
		t.Errorf("Web.Addr = %q, want 127.0.0.1:9999", cfg.Web.Addr)
	}
	if cfg.Sync.Interval != 30*time.Second {
		t.Errorf("Sync.Interval = %v, want 30s", cfg.Sync.Interval)
	}
	if cfg.Sync.MaxRetries != 3 {
		t.Errorf("Sync.MaxRetries = %d, want 3", cfg.Sync.MaxRetries)
	}
	// Untouched keys keep defaults.
	if cfg.Scheduler.MaximumInterval != 36500 {
		t.Errorf("Scheduler.MaximumInterval = %d, want 36500", cfg.Scheduler.MaximumInterval)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("db_path: from-file.db\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RECALLKIT_DB_PATH", "from-env.db")
	t.Setenv("RECALLKIT_REMOTE__BASE_URL", "http://env.example.com")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "from-env.db" {
		t.Errorf("DBPath = %q, want from-env.db", cfg.DBPath)
	}
	if cfg.Remote.BaseURL != "http://env.example.com" {
		t.Errorf("Remote.BaseURL = %q, want http://env.example.com", cfg.Remote.BaseURL)
	}
}

// serveFlags mirrors the flag set the binary declares: every key
// defined with a zero default.
func serveFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db_path", "", "")
	flags.String("web.addr", "", "")
	flags.String("remote.base_url", "", "")
	flags.String("remote.api_key", "", "")
	flags.String("remote.token", "", "")
	flags.String("remote.user_id", "", "")
	flags.Duration("sync.interval", 0, "")
	flags.Int("sync.max_retries", 0, "")
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags
}

func TestUnsetFlagsKeepDefaults(t *testing.T) {
	cfg, err := Load("", serveFlags(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "recallkit.db" {
		t.Errorf("DBPath = %q, want recallkit.db", cfg.DBPath)
	}
	if cfg.Web.Addr != "127.0.0.1:8484" {
		t.Errorf("Web.Addr = %q, want 127.0.0.1:8484", cfg.Web.Addr)
	}
	if cfg.Remote.BaseURL != "http://127.0.0.1:54321" {
		t.Errorf("Remote.BaseURL = %q, want default", cfg.Remote.BaseURL)
	}
	if cfg.Sync.Interval != 5*time.Minute {
		t.Errorf("Sync.Interval = %v, want 5m", cfg.Sync.Interval)
	}
	if cfg.Sync.MaxRetries != 5 {
		t.Errorf("Sync.MaxRetries = %d, want 5", cfg.Sync.MaxRetries)
	}
}

func TestUnsetFlagsKeepFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("db_path: from-file.db\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, serveFlags(t, "--sync.max_retries=7"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "from-file.db" {
		t.Errorf("DBPath = %q, want from-file.db", cfg.DBPath)
	}
	if cfg.Sync.MaxRetries != 7 {
		t.Errorf("Sync.MaxRetries = %d, want 7", cfg.Sync.MaxRetries)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("RECALLKIT_DB_PATH", "from-env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db_path", "", "")
	flags.String("web.addr", "", "")
	if err := flags.Parse([]string{"--db_path=from-flag.db", "--web.addr=0.0.0.0:8080"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "from-flag.db" {
		t.Errorf("DBPath = %q, want from-flag.db", cfg.DBPath)
	}
	if cfg.Web.Addr != "0.0.0.0:8080" {
		t.Errorf("Web.Addr = %q, want 0.0.0.0:8080", cfg.Web.Addr)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty db path", `db_path: ""`},
		{"bad web addr", "web:\n  addr: not-an-addr\n"},
		{"bad remote url", "remote:\n  base_url: not-a-url\n"},
		{"zero max retries", "sync:\n  max_retries: 0\n"},
		{"retention above one", "scheduler:\n  desired_retention: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path, nil); err == nil {
				t.Fatal("Load succeeded, want validation error")
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml"), nil); err == nil {
		t.Fatal("Load succeeded, want error for missing file")
	}
}
