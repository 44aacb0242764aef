package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestColorizeGatesOnWrittenStream(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "sink"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	// A regular file is never a terminal; no escapes may leak into it, no
	// matter what stdout is.
	got := colorize("warning", ansiYellow, f)
	if strings.Contains(got, "\033") {
		t.Errorf("colorize wrote escapes to a non-terminal stream: %q", got)
	}
	if got != "warning" {
		t.Errorf("colorize altered the text: %q", got)
	}
}
