package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestExpandInputsKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b_enrol.csv", "a_demo.csv", "c_bio.csv"} {
		touch(t, filepath.Join(dir, n))
	}
	bio := filepath.Join(dir, "c_bio.csv")
	got, err := ExpandInputs([]string{bio, filepath.Join(dir, "*.csv")})
	if err != nil {
		t.Fatalf("ExpandInputs: %v", err)
	}
	want := []string{bio, filepath.Join(dir, "a_demo.csv"), filepath.Join(dir, "b_enrol.csv")}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExpandInputsNoMatch(t *testing.T) {
	dir := t.TempDir()
	if _, err := ExpandInputs([]string{filepath.Join(dir, "*.csv"), dir}); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestSafeWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := SafeWrite(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}); err != nil {
		t.Fatalf("SafeWrite: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "hello" {
		t.Fatalf("read back %q, %v", b, err)
	}

	boom := errors.New("boom")
	other := filepath.Join(t.TempDir(), "never.txt")
	if err := SafeWrite(other, func(io.Writer) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := os.Stat(other); !os.IsNotExist(err) {
		t.Fatalf("failed write should leave no file")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
