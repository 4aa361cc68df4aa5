package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute(%v) error = %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestRun_Workers(t *testing.T) {
	out := runCmd(t, "run", "--workers", "Larry,Shemp", "--messages", "2", "--interval", "1ms")

	for _, want := range []string{
		"Starting application.",
		"Larry message 1 of 2",
		"Larry message 2 of 2",
		"Shemp message 2 of 2",
		"Worker Shemp threw an exception",
		"this is a test exception",
		"BusyWork.Larry",
		"Application shutting down",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Moe") {
		t.Errorf("Only selected workers should run:\n%s", out)
	}
}

func TestRun_EnvOverride(t *testing.T) {
	t.Setenv("BUSYWORK_MESSAGES", "1")
	out := runCmd(t, "run", "--workers", "Curly", "--interval", "1ms")
	if !strings.Contains(out, "Curly message 1 of 1") {
		t.Errorf("Expected env override of messages:\n%s", out)
	}
}

func TestException(t *testing.T) {
	out := runCmd(t, "exception")
	for _, want := range []string{
		"Oh Snap!  We just had an exception!",
		"this is the outer exception: key: this is the innermost exception",
		"ERROR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	if out := runCmd(t, "version"); !strings.Contains(out, "BusyWork dev") {
		t.Errorf("Unexpected version output %q", out)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nlog.yaml")
	yaml := `
agent:
  console: false
minLevel: info
targets:
  - type: Console
    layout: "${logger} ${level} ${message}"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--config", path, "run", "--workers", "Moe", "--messages", "1", "--fail", ""})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Application INFO Starting application.") {
		t.Errorf("Expected console target output:\n%s", got)
	}
	if strings.Contains(got, "Moe message") {
		t.Errorf("Trace messages should be filtered at info:\n%s", got)
	}
}
