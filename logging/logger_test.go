package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestHCLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Name: "test", JSON: true})
	l.Info("stage added", map[string]any{"stage": "ProdDeploy", "actions": 2})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["@message"] != "stage added" {
		t.Errorf("message = %v", entry["@message"])
	}
	if entry["stage"] != "ProdDeploy" {
		t.Errorf("stage = %v", entry["stage"])
	}
	if entry["@level"] != "info" {
		t.Errorf("level = %v", entry["@level"])
	}
}

func TestHCLogger_DebugRequiresVerbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{}).Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug emitted without verbose: %q", buf.String())
	}

	New(&buf, Options{Verbose: true}).Debug("shown", map[string]any{"k": "v"})
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug missing with verbose: %q", buf.String())
	}
}

func TestHCLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{JSON: true}).Named("synth").Info("plan compiled", nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["@module"] != "envpipe.synth" {
		t.Errorf("module = %v, want envpipe.synth", entry["@module"])
	}
}

func TestNop(t *testing.T) {
	OrNop(nil).Error("ignored", map[string]any{"a": 1})
	Nop().Info("ignored", nil)
}
