//go:build !windows

package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestIsWindowsService(t *testing.T) {
	if IsWindowsService() {
		t.Fatal("IsWindowsService returned true on a non-Windows build")
	}
}

func TestRun_InvokesLoop(t *testing.T) {
	ran := false
	svc := New(zap.NewNop(), func(ctx context.Context) {
		if ctx == nil {
			t.Error("loop received a nil context")
		}
		ran = true
	})

	if err := svc.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Fatal("loop was never invoked")
	}
}
