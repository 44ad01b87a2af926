package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]log.Level{
		"DEBUG":    log.DebugLevel,
		"info":     log.InfoLevel,
		"Warning":  log.WarnLevel,
		"ERROR":    log.ErrorLevel,
		"CRITICAL": log.ErrorLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: got=%v want=%v", name, got, want)
		}
	}
	if _, err := ParseLevel("os.system('x')"); err == nil {
		t.Fatal("expected unknown level error")
	}
}

func TestCritical_TaggedAndFiltered(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(&buf, "WARNING")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hidden")
	Critical(l, "bad tier", "tier", "turbo")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info leaked: %q", out)
	}
	if !strings.Contains(out, "bad tier") || !strings.Contains(out, "severity=critical") {
		t.Fatalf("out=%q", out)
	}
}

func TestOpen_AppendsToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client.log")
	for i := 0; i < 2; i++ {
		w, err := Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if _, err := w.Write([]byte("line\n")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		_ = w.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "line\nline\n" {
		t.Fatalf("data=%q", data)
	}
}
