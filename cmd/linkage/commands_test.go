package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// armDir copies the arm snapshot into a fresh robot directory and keeps
// the mesh cache inside it.
func armDir(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "pkg", "source", "testdata", "arm", "assembly.json"))
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assembly.json"), data, 0o644))
	t.Setenv("LINKAGE_CACHE_PATH", filepath.Join(dir, "cache.sqlite"))
	t.Setenv("LINKAGE_MESH_CELLS", "16")
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestTreeCommand(t *testing.T) {
	dir := armDir(t)
	out, _, err := execute(t, "tree", dir, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "base\n")
	assert.Contains(t, out, "  upper_arm [revolute shoulder")
	assert.Contains(t, out, "    gripper [revolute wrist")
	assert.Contains(t, out, "@tool")
	assert.Contains(t, out, "assignments:")
	assert.Contains(t, out, "Screw M3 <1> -> base")

	_, err = os.Stat(filepath.Join(dir, "robot.urdf"))
	assert.True(t, os.IsNotExist(err), "tree must not write the model")
}

func TestConvertCommand(t *testing.T) {
	dir := armDir(t)
	out, _, err := execute(t, "convert", dir, "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 5 files for onshape")

	_, err = os.Stat(filepath.Join(dir, "robot.urdf"))
	assert.NoError(t, err)
}

func TestConvertCommandFormatFlag(t *testing.T) {
	dir := armDir(t)
	_, _, err := execute(t, "convert", dir, "-f", "sdf", "--log-level", "warn")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "model.sdf"))
	assert.NoError(t, err)
}

func TestConvertCommandConfigFile(t *testing.T) {
	dir := armDir(t)
	cfgPath := filepath.Join(t.TempDir(), "arm.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("robotName: arm\noutputFormat: sdf\n"), 0o644))

	out, _, err := execute(t, "convert", dir, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "for arm")
	_, err = os.Stat(filepath.Join(dir, "model.sdf"))
	assert.NoError(t, err)
}

func TestCommandErrors(t *testing.T) {
	_, _, err := execute(t, "convert")
	assert.Error(t, err, "missing robot directory")

	_, _, err = execute(t, "convert", t.TempDir())
	assert.Error(t, err, "no snapshot")

	_, _, err = execute(t, "tree", armDir(t), "--format", "mjcf")
	assert.Error(t, err, "unknown format")
}

func TestWatchCommand(t *testing.T) {
	dir := armDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", dir, "--debounce", "20ms", "--log-level", "error"})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	model := filepath.Join(dir, "robot.urdf")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(model)
		return err == nil
	}, 30*time.Second, 50*time.Millisecond, "first conversion")
	require.NoError(t, os.Remove(model))

	// A config change triggers a conversion with the new settings.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("outputFormat: sdf\n"), 0o644))
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "model.sdf"))
		return err == nil
	}, 30*time.Second, 50*time.Millisecond, "conversion after config change")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Contains(t, stdout.String(), "wrote 5 files for onshape")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "linkage dev\n", out)
}
