package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestPacerBreathsCommand(t *testing.T) {
	t.Parallel()
	out := run(t, "--data-dir", t.TempDir(), "pacer", "breaths", "--bpm", "6", "--duration-ms", "60000")
	if !strings.HasPrefix(out, "6 breaths in 60000ms") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Count(out, "inhale") != 6 || strings.Count(out, "exhale") != 6 {
		t.Fatalf("expected 6 inhale/exhale pairs:\n%s", out)
	}
}

func TestRegimesAndSegmentCommands(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	generated := run(t, "--data-dir", dir, "regimes", "generate", "--condition", "a", "--stage", "2")
	if lines := strings.Split(strings.TrimSpace(generated), "\n"); len(lines) != 7 {
		t.Fatalf("expected header plus 6 regimes, got:\n%s", generated)
	}
	again := run(t, "--data-dir", dir, "regimes", "generate", "--condition", "A", "--stage", "2")
	if again != generated {
		t.Fatalf("second generate must return the filed assignment:\n%s\nvs\n%s", generated, again)
	}

	run(t, "--data-dir", dir, "segment", "start", "--stage", "1")
	active := run(t, "--data-dir", dir, "segment", "active")
	if !strings.Contains(active, "rest stage 1") {
		t.Fatalf("unexpected active output: %s", active)
	}
	ended := run(t, "--data-dir", dir, "segment", "end", "--avg-coherence", "0.8")
	if !strings.Contains(ended, "coherence 0.800") {
		t.Fatalf("unexpected end output: %s", ended)
	}

	stats := run(t, "--data-dir", dir, "regimes", "stats")
	if lines := strings.Split(strings.TrimSpace(stats), "\n"); len(lines) != 6 {
		t.Fatalf("expected 6 regimes in stats, got:\n%s", stats)
	}
}

func TestEphemeralLeavesNoStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	generated := run(t, "--data-dir", dir, "--ephemeral", "regimes", "generate", "--condition", "A", "--stage", "2")
	if lines := strings.Split(strings.TrimSpace(generated), "\n"); len(lines) != 7 {
		t.Fatalf("expected header plus 6 regimes, got:\n%s", generated)
	}
	run(t, "--data-dir", dir, "--ephemeral", "segment", "start", "--stage", "1")
	if _, err := os.Stat(filepath.Join(dir, ".breathtrain")); !os.IsNotExist(err) {
		t.Fatalf("ephemeral run touched the data dir, stat err=%v", err)
	}

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--data-dir", dir, "--ephemeral", "segment", "active"})
	if err := root.Execute(); err == nil {
		t.Fatal("active segment must not outlive an ephemeral run")
	}
}
