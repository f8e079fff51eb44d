package pidfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"go.uber.org/zap"
)

// fakeInspector records whether Terminate was called and lets each test
// script the verification answers.
type fakeInspector struct {
	cmdline    string
	cmdlineErr error
	exists     bool
	existsErr  error

	terminated   []int
	terminateErr error
}

func (f *fakeInspector) Cmdline(context.Context, int32) (string, error) {
	return f.cmdline, f.cmdlineErr
}

func (f *fakeInspector) Exists(context.Context, int32) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeInspector) Terminate(pid int) error {
	f.terminated = append(f.terminated, pid)
	return f.terminateErr
}

func writePID(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.pid")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agent.pid")
	if err := Write(path, 4242); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "4242" {
		t.Errorf("pid file contains %q, want plain integer", data)
	}
}

func TestStop_NoPIDFileIsClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.pid")
	insp := &fakeInspector{}

	if err := stop(path, insp, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if len(insp.terminated) != 0 {
		t.Error("nothing should be signaled without a PID file")
	}
}

func TestStop_CorruptFileRemovedWithoutSignal(t *testing.T) {
	path := writePID(t, "not-a-pid\n")
	insp := &fakeInspector{}

	if err := stop(path, insp, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if len(insp.terminated) != 0 {
		t.Error("corrupt file must not trigger a signal")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt PID file should be removed")
	}
}

func TestStop_StalePIDRemovedWithoutSignal(t *testing.T) {
	path := writePID(t, "1234")
	insp := &fakeInspector{cmdline: "/usr/bin/postgres -D /data"}

	if err := stop(path, insp, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if len(insp.terminated) != 0 {
		t.Error("foreign process must not be signaled")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stale PID file should be removed")
	}
}

func TestStop_VerifiedAgentIsTerminated(t *testing.T) {
	path := writePID(t, "1234")
	insp := &fakeInspector{cmdline: "/usr/local/bin/blackbox-agent run"}

	if err := stop(path, insp, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if len(insp.terminated) != 1 || insp.terminated[0] != 1234 {
		t.Errorf("terminated = %v, want [1234]", insp.terminated)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("PID file should be removed after stop")
	}
}

func TestStop_FileRemovedEvenWhenSignalFails(t *testing.T) {
	path := writePID(t, "1234")
	insp := &fakeInspector{
		cmdline:      "blackbox-agent run",
		terminateErr: errors.New("no such process"),
	}

	if err := stop(path, insp, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("PID file should be removed even when the signal fails")
	}
}

func TestStop_NoCmdlineFallsBackToExistence(t *testing.T) {
	// Platforms without command-line introspection: existence is accepted
	// as sufficient proof of identity.
	path := writePID(t, "1234")
	insp := &fakeInspector{
		cmdlineErr: errors.New("access denied"),
		exists:     true,
	}

	if err := stop(path, insp, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if len(insp.terminated) != 1 {
		t.Error("existing process should be stopped under the existence fallback")
	}
}

func TestStop_GoneProcessCleansUp(t *testing.T) {
	path := writePID(t, strconv.Itoa(999999))
	insp := &fakeInspector{
		cmdlineErr: errors.New("process does not exist"),
		exists:     false,
	}

	if err := stop(path, insp, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if len(insp.terminated) != 0 {
		t.Error("dead process must not be signaled")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("PID file for a dead process should be removed")
	}
}
