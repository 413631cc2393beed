package app

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxkit/voxd/internal/ipc"
)

func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "runtime"))
	return dir
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecuteVersion(t *testing.T) {
	code, stdout, _ := execute(t, "version")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "voxd ")
}

func TestExecuteHelp(t *testing.T) {
	code, stdout, _ := execute(t, "help")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "Usage:")
	require.Contains(t, stdout, "run")
}

func TestExecuteNoArgsShowsHelp(t *testing.T) {
	code, stdout, _ := execute(t)
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "Usage:")
}

func TestExecuteUnknownCommand(t *testing.T) {
	code, _, stderr := execute(t, "dance")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "unknown command")
}

func TestExecuteUnknownFlag(t *testing.T) {
	code, _, stderr := execute(t, "--frobnicate")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "unknown flag")
}

func TestStatusWithoutDaemonPrintsStopped(t *testing.T) {
	isolateXDG(t)

	code, stdout, _ := execute(t, "status")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "stopped")
}

func TestStopWithoutDaemonFails(t *testing.T) {
	isolateXDG(t)

	code, _, stderr := execute(t, "stop")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "no active voxd session")
}

func TestStatusForwardsToRunningDaemon(t *testing.T) {
	dir := isolateXDG(t)

	runtimeDir := filepath.Join(dir, "runtime")
	socketPath := filepath.Join(runtimeDir, "voxd.sock")
	require.NoError(t, os.MkdirAll(runtimeDir, 0o700))

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer listener.Close()

	serveCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = ipc.Serve(serveCtx, listener, ipc.HandlerFunc(func(context.Context, ipc.Request) ipc.Response {
			return ipc.Response{OK: true, Phase: "awaiting_wake", WakeAllowed: true, Iterations: 4}
		}))
	}()

	code, stdout, _ := execute(t, "status")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "awaiting_wake")
	require.Contains(t, stdout, "wake armed")
	require.Contains(t, stdout, "iterations 4")
}

func TestStopForwardsToRunningDaemon(t *testing.T) {
	dir := isolateXDG(t)

	runtimeDir := filepath.Join(dir, "runtime")
	socketPath := filepath.Join(runtimeDir, "voxd.sock")
	require.NoError(t, os.MkdirAll(runtimeDir, 0o700))

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer listener.Close()

	serveCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = ipc.Serve(serveCtx, listener, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
			return ipc.Response{OK: true, Phase: "awaiting_wake", Message: "stop requested"}
		}))
	}()

	code, stdout, _ := execute(t, "stop")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "stop requested")
}
