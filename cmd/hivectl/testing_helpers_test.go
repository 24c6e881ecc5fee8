package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/hivetrace/internal/testhive"
)

// writeSystemHive writes the synthetic SYSTEM fixture to a temp file named
// SYSTEM and returns its path.
func writeSystemHive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "SYSTEM")
	if err := os.WriteFile(path, testhive.System().Data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// resetFlags restores every command flag and reloads the default config.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut = false, false, false
	configPath = ""
	queryStart, queryDescendants = "", false
	servicesControlSet = ""
	shimcacheRaw = false
	scanPattern = ""
	if err := loadConfig(); err != nil {
		t.Fatalf("load config: %v", err)
	}
}

// captureOutput collects everything the commands write to stdout while fn
// runs.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	defer func() { stdout = orig }()

	err := fn()
	return buf.String(), err
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
