package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		logWarn bool
		logInfo bool
		wantErr bool
	}{
		{"default", "", true, true, false},
		{"warn", "warn", true, false, false},
		{"upper case", "ERROR", false, false, false},
		{"debug", "debug", true, true, false},
		{"invalid", "loud", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(&buf, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			logger.Info("info line")
			logger.Warn("warn line", "offset", 42)
			out := buf.String()

			if got := strings.Contains(out, "info line"); got != tt.logInfo {
				t.Errorf("info logged = %v, want %v (%q)", got, tt.logInfo, out)
			}
			if got := strings.Contains(out, "warn line"); got != tt.logWarn {
				t.Errorf("warn logged = %v, want %v (%q)", got, tt.logWarn, out)
			}
			if tt.logWarn && !strings.Contains(out, "offset=42") {
				t.Errorf("expected key/value pair in %q", out)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic or write anywhere.
	Discard().Error("ignored", "k", "v")
}
