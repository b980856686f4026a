package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})
	logger.Info("session started", "session_id", "ses-123")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if record["msg"] != "session started" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
	if record["session_id"] != "ses-123" {
		t.Fatalf("unexpected session_id: %v", record["session_id"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record should pass")
	}
}

func TestLogger_RedactsAPIKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "text", Output: &buf})
	logger.Info("configured provider", "key", "sk-or-v1-abcdefghijklmnopqrstuvwx")

	out := buf.String()
	if strings.Contains(out, "abcdefghijklmnop") {
		t.Fatalf("api key leaked into log output: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("expected redaction placeholder, got: %s", out)
	}
}

func TestLogger_WithHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})
	logger.WithSession("ses-1").WithPhase("analysis").WithVoice("alpha").Info("round complete")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if record["session_id"] != "ses-1" || record["phase"] != "analysis" || record["voice"] != "alpha" {
		t.Fatalf("expected scoped fields, got: %v", record)
	}
}

func TestSanitizer_Patterns(t *testing.T) {
	s := NewSanitizer()
	cases := []string{
		"sk-or-v1-0123456789abcdefghijklmn",
		"sk-ant-" + strings.Repeat("a", 45),
		"Bearer abcdefghijklmnopqrstuvwxyz",
	}
	for _, c := range cases {
		if !strings.Contains(s.Sanitize("cred: "+c), "[REDACTED]") {
			t.Fatalf("expected %q to be redacted", c)
		}
	}
	if s.Sanitize("plain text") != "plain text" {
		t.Fatalf("plain text must pass through")
	}
}

func TestSanitizer_AddPattern(t *testing.T) {
	s := NewSanitizer()
	if err := s.AddPattern(`voice-secret-\d+`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(s.Sanitize("voice-secret-42"), "[REDACTED]") {
		t.Fatalf("custom pattern not applied")
	}
	if err := s.AddPattern(`(`); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}
