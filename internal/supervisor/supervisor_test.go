package supervisor

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func fakeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	name := "adb"
	if runtime.GOOS == "windows" {
		name = "adb.exe"
	}
	path := filepath.Join(dir, name)
	if runtime.GOOS == "windows" {
		body = "@echo off\r\n" + body
	} else {
		body = "#!/bin/sh\n" + body
	}
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write fake adb: %v", err)
	}
	return path
}

func TestNewRejectsWrongName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-adb")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path, Version{1, 0, 0}); err == nil {
		t.Fatal("expected error for mismatched filename")
	}
}

func TestNewRejectsMissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "adb"), Version{1, 0, 0}); err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestGetVersionParsesVersionLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are unix-only")
	}
	path := fakeScript(t, "echo 'Android Debug Bridge version 1.0.41'\n")
	s, err := New(path, Version{1, 0, 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := s.GetVersion()
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if v != (Version{1, 0, 41}) {
		t.Fatalf("got %v, want 1.0.41", v)
	}
}

func TestGetVersionRejectsTooOld(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are unix-only")
	}
	path := fakeScript(t, "echo 'Android Debug Bridge version 0.9.1'\n")
	s, err := New(path, Version{1, 0, 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.GetVersion(); err == nil {
		t.Fatal("expected VersionTooOld")
	}
}

func TestGetVersionUnknownOnNoMatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are unix-only")
	}
	path := fakeScript(t, "echo 'garbage output'\n")
	s, err := New(path, Version{1, 0, 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.GetVersion(); err == nil {
		t.Fatal("expected ErrVersionUnknown")
	}
}

func TestStartServerSucceedsOnFirstTry(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are unix-only")
	}
	path := fakeScript(t, "exit 0\n")
	s, err := New(path, Version{1, 0, 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.StartServer(); err != nil {
		t.Fatalf("StartServer: %v", err)
	}
}

func TestVersionLess(t *testing.T) {
	cases := []struct {
		a, b Version
		want bool
	}{
		{Version{1, 0, 20}, Version{1, 0, 41}, true},
		{Version{1, 0, 41}, Version{1, 0, 20}, false},
		{Version{0, 9, 9}, Version{1, 0, 0}, true},
		{Version{1, 0, 0}, Version{1, 0, 0}, false},
	}
	for _, c := range cases {
		if got := c.a.Less(c.b); got != c.want {
			t.Errorf("%v.Less(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
