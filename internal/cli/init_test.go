package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fiscus/internal/log"
)

func testLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Level: log.ParseLevel("error"), Component: log.ComponentApp, Output: buf})
}

func TestLoadAndValidateConfigReturnsError(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	var buf bytes.Buffer
	cfg, err := LoadAndValidateConfig(testLogger(&buf))
	if err == nil || cfg != nil {
		t.Fatalf("expected validation error, got cfg=%v err=%v", cfg, err)
	}
	if !strings.Contains(buf.String(), "Configuration validation failed") {
		t.Fatalf("failure not logged: %q", buf.String())
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "TIMEZONE", "RATE_LIMIT_PER_MINUTE", "REPORT_CACHE_TTL", "REDIS_URL",
		"AMQP_URL", "GOOGLE_SPREADSHEET_ID", "MIRROR_BATCH_LOG_INTERVAL"} {
		t.Setenv(key, "")
	}
	t.Setenv("PORT", "4100")
	t.Setenv("FISCUS_DB_PATH", filepath.Join(t.TempDir(), "fiscus.db"))

	var buf bytes.Buffer
	cfg, err := LoadAndValidateConfig(testLogger(&buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "4100" {
		t.Fatalf("port = %q", cfg.Port)
	}
}

func TestInitSQLiteReturnsError(t *testing.T) {
	// A regular file where the database directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var buf bytes.Buffer
	repo, err := InitSQLite(testLogger(&buf), filepath.Join(blocker, "fiscus.db"))
	if err == nil || repo != nil {
		t.Fatalf("expected error, got repo=%v err=%v", repo, err)
	}

	repo, err = InitSQLite(testLogger(&buf), filepath.Join(t.TempDir(), "fiscus.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.Close()
}
