package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestReadBuildInfo(t *testing.T) {
	t.Parallel()

	bi := readBuildInfo()
	// Each field falls back to a placeholder, never to "".
	if bi.Version == "" {
		t.Error("empty version")
	}
	if bi.Commit == "" {
		t.Error("empty commit")
	}
	if bi.Date == "" {
		t.Error("empty build date")
	}
	if bi.Go != runtime.Version() {
		t.Errorf("expected Go %s, got %s", runtime.Version(), bi.Go)
	}
	if len(bi.Commit) > 7 && bi.Commit != "unknown" {
		t.Errorf("expected a short commit hash, got %q", bi.Commit)
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("getVersion() returned empty string")
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "version" {
			t.Errorf("expected Use to be 'version', got %q", cmd.Use)
		}
	})

	t.Run("command outputs version info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"seocheck version", "commit:", "built:", "go:"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})
}
