package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ravlbench dev\n", out)
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run",
		"--log-level", "error",
		"--threads", "2",
		"--duration", "20ms",
		"--initial-size", "64",
		"--key-range", "256",
		"--update", "40",
		"--seed", "9",
		"-d", "1",
		"--verbose",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "ravlbench")
	assert.Contains(t, out, "256")
	assert.Contains(t, out, "TOTAL")
}

func TestRunCommand_InvalidFlags(t *testing.T) {
	_, err := execute(t, "run", "--log-level", "error", "--threads", "0", "--distribution", "normal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workload.threads")
	assert.Contains(t, err.Error(), "normal")
}

func TestRunCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	yaml := "log:\n  level: error\nworkload:\n  threads: 1\n  duration: 10ms\n  initial_size: 8\n  key_range: 32\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	out, err := execute(t, "run", "--config", path, "--distribution", "ascending")
	require.NoError(t, err)
	assert.Contains(t, out, "ascending")
	assert.Contains(t, out, "expected")
}

func TestVerifyCommand(t *testing.T) {
	out, err := execute(t, "verify", "--log-level", "error", "--steps", "2000", "--keys", "200", "--seed", "3", "-d", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "2,000")
	assert.Contains(t, out, "ok")
}

func TestVerifyCommand_RejectsBadSteps(t *testing.T) {
	_, err := execute(t, "verify", "--steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps")
}
