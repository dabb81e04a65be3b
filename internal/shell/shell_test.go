package shell

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestEvalSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests use Unix commands")
	}
	ok, err := Eval(context.Background(), "true")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Eval(true) should return true")
	}
}

func TestEvalFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests use Unix commands")
	}
	ok, err := Eval(context.Background(), "false")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Eval(false) should return false")
	}
}

func TestEvalCommandNotFoundIsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests use Unix commands")
	}
	// sh itself starts fine and reports 127, so this is a non-zero exit.
	ok, err := Eval(context.Background(), "nonexistent_binary_xyz_12345")
	if err != nil {
		t.Fatalf("unexpected invocation error: %v", err)
	}
	if ok {
		t.Error("expected non-zero exit")
	}
}

func TestEvalCancelled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests use Unix commands")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := Eval(ctx, "sleep 10")
	if ok {
		t.Error("cancelled command should not report success")
	}
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestExecBinaryNotFound(t *testing.T) {
	ok, err := Exec(context.Background(), "", "nonexistent_binary_xyz_12345")
	if ok {
		t.Error("expected failure")
	}
	if err == nil {
		t.Error("expected invocation error for missing binary")
	}
}

func TestExecDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests use Unix commands")
	}
	dir := t.TempDir()
	ok, err := Exec(context.Background(), dir, "sh", "-c", "touch marker")
	if err != nil || !ok {
		t.Fatalf("Exec = %v, %v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Errorf("command did not run in dir: %v", err)
	}
}

func TestHostRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell tests use Unix commands")
	}
	ok, err := Host{}.Run(context.Background(), "echo hello")
	if err != nil || !ok {
		t.Errorf("Run(echo) = %v, %v", ok, err)
	}
}
