package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestComponentFieldAndLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithWriter(&buf, "warn", "json")
	lg := Component(root, "scheduling")

	lg.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info line written at warn level: %s", buf.String())
	}

	lg.Warn().Str("actor", "u1").Msg("kept")
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if line["component"] != "scheduling" || line["actor"] != "u1" || line["level"] != "warn" {
		t.Errorf("unexpected log line: %v", line)
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWithWriter(&buf, "loud", "json")
	lg.Debug().Msg("x")
	lg.Info().Msg("y")
	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Errorf("expected only the info line, got %q", buf.String())
	}
}
