package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen != DefaultListen {
		t.Errorf("Listen: got %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.Reader != DefaultReader {
		t.Errorf("Reader: got %q, want %q", cfg.Reader, DefaultReader)
	}
	if cfg.Store != DefaultStore {
		t.Errorf("Store: got %q, want %q", cfg.Store, DefaultStore)
	}
	if cfg.AccountID != DefaultAccountID {
		t.Errorf("AccountID: got %d, want %d", cfg.AccountID, DefaultAccountID)
	}
	if cfg.NotifyInterval != DefaultNotifyInterval {
		t.Errorf("NotifyInterval: got %s, want %s", cfg.NotifyInterval, DefaultNotifyInterval)
	}
	if cfg.ReaderJSON() != nil {
		t.Errorf("ReaderJSON: got %s, want nil", cfg.ReaderJSON())
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error: %v", err)
	}
	if loc != time.Local {
		t.Errorf("Location: got %v, want Local", loc)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MONAY_LISTEN", "127.0.0.1:9090")
	t.Setenv("MONAY_READER", "jsonl")
	t.Setenv("MONAY_READER_CONFIG", `{"path":"notifications.jsonl"}`)
	t.Setenv("MONAY_STORE_CONFIG", `{"path":"/var/lib/monay/bills.db","busyTimeout":2000}`)
	t.Setenv("MONAY_TIMEZONE", "UTC")
	t.Setenv("MONAY_ACCOUNT_ID", "7")
	t.Setenv("MONAY_NOTIFY_INTERVAL", "10s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen != "127.0.0.1:9090" {
		t.Errorf("Listen: got %q, want %q", cfg.Listen, "127.0.0.1:9090")
	}
	if cfg.Reader != "jsonl" {
		t.Errorf("Reader: got %q, want %q", cfg.Reader, "jsonl")
	}
	if got := string(cfg.ReaderJSON()); got != `{"path":"notifications.jsonl"}` {
		t.Errorf("ReaderJSON: got %s", got)
	}
	if got := string(cfg.StoreJSON()); got != `{"path":"/var/lib/monay/bills.db","busyTimeout":2000}` {
		t.Errorf("StoreJSON: got %s", got)
	}
	if cfg.AccountID != 7 {
		t.Errorf("AccountID: got %d, want 7", cfg.AccountID)
	}
	if cfg.NotifyInterval != 10*time.Second {
		t.Errorf("NotifyInterval: got %s, want 10s", cfg.NotifyInterval)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error: %v", err)
	}
	if loc.String() != "UTC" {
		t.Errorf("Location: got %v, want UTC", loc)
	}
}

func TestLoad_FileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monay.json")
	body := `{"MONAY_LISTEN": ":7000", "MONAY_STORE": "postgres", "MONAY_RULES_FILE": "rules.json"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("MONAY_LISTEN", ":7001")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen != ":7001" {
		t.Errorf("Listen: got %q, want env value %q", cfg.Listen, ":7001")
	}
	if cfg.Store != "postgres" {
		t.Errorf("Store: got %q, want %q", cfg.Store, "postgres")
	}
	if cfg.RulesFile != "rules.json" {
		t.Errorf("RulesFile: got %q, want %q", cfg.RulesFile, "rules.json")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad timezone", "MONAY_TIMEZONE", "Mars/Olympus"},
		{"bad reader config", "MONAY_READER_CONFIG", "{path:"},
		{"bad store config", "MONAY_STORE_CONFIG", "not json"},
		{"negative account", "MONAY_ACCOUNT_ID", "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%q, got nil", tc.key, tc.val)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing config file, got nil")
	}
}
