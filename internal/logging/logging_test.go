package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScrub_SingleOccurrence(t *testing.T) {
	got := Scrub("auth failed for key glk_abc123", "glk_abc123")
	if strings.Contains(got, "glk_abc123") {
		t.Errorf("key leaked: %q", got)
	}
	if !strings.Contains(got, "[REDACTED]") {
		t.Errorf("no redaction marker in %q", got)
	}
}

func TestScrub_RepeatedOccurrences(t *testing.T) {
	msg := "key=glk_k detail=glk_k again glk_k"
	got := Scrub(msg, "glk_k")
	if strings.Contains(got, "glk_k") {
		t.Errorf("key leaked: %q", got)
	}
	if n := strings.Count(got, "[REDACTED]"); n != 3 {
		t.Errorf("got %d markers, want 3", n)
	}
}

func TestScrub_EmptyKeyIsNoop(t *testing.T) {
	msg := "nothing to hide"
	if got := Scrub(msg, ""); got != msg {
		t.Errorf("Scrub(%q, \"\") = %q", msg, got)
	}
}

func TestNew_WritesLogFile(t *testing.T) {
	dir := t.TempDir()

	logger := New("debug", dir)
	logger.Info("hello from test")
	logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "blackbox-agent.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestNew_BadDirFallsBackToConsole(t *testing.T) {
	logger := New("info", filepath.Join(string(os.PathSeparator), "dev", "null", "nope"))
	// Must not panic, must still log.
	logger.Info("still alive")
}
