package buildsys

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func TestMergeEnv(t *testing.T) {
	got := MergeEnv([]string{"B=2", "A=1", "BROKEN"}, map[string]string{"B": "3", "C": "4"})
	want := []string{"A=1", "B=3", "C=4"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("MergeEnv() = %v, want %v", got, want)
	}
}

func TestCommand_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}

	var mirror strings.Builder
	ok := &Command{Bin: "sh", Args: []string{"-c", "echo $GREETING"}, Env: map[string]string{"GREETING": "hello"}, Mirror: &mirror}
	if err := ok.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(mirror.String()) != "hello" {
		t.Errorf("mirrored output = %q, want hello", mirror.String())
	}

	fail := &Command{Bin: "sh", Args: []string{"-c", "echo broken >&2; exit 3"}}
	err := fail.Run(context.Background())
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if ee.Code != 3 {
		t.Errorf("Code = %d, want 3", ee.Code)
	}
	if !strings.Contains(ee.Output, "broken") {
		t.Errorf("Output = %q, want stderr captured", ee.Output)
	}

	missing := &Command{Bin: "xvcpkg-no-such-binary"}
	if err := missing.Run(context.Background()); err == nil || errors.As(err, &ee) {
		t.Errorf("Run() of a missing binary = %v, want a non-exit error", err)
	}
}
