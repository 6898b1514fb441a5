package cli

import (
	"bytes"
	"strings"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sub := range []string{"buildings", "apartments", "bookings", "book", "buy", "serve", "backend", "config", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help should list %q", sub)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	if root.PersistentFlags().Lookup("api") == nil {
		t.Fatal("expected --api flag to exist")
	}
}

func TestRejectsUnknownFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand("version", "--format", "xml")
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestVersion(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "reb dev\n" {
		t.Errorf("output = %q, want %q", out, "reb dev\n")
	}
}
