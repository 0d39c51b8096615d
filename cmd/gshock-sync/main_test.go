package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/config"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/session"
)

func TestRememberAddress(t *testing.T) {
	store, err := config.OpenStore(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	rememberAddress(store, "D0:4F:7E:12:34:56")
	if got, _ := store.Get(session.KeyAddress); got != "D0:4F:7E:12:34:56" {
		t.Errorf("stored address = %q", got)
	}

	rememberAddress(store, "")
	if got, _ := store.Get(session.KeyAddress); got != "D0:4F:7E:12:34:56" {
		t.Errorf("empty address overwrote the stored one: %q", got)
	}
}

func TestRememberAddressLogsStoreFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	store, err := config.OpenStore(filepath.Join(dir, "state.yaml"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	// the store directory is now a regular file, so saving fails
	if err := os.WriteFile(dir, nil, 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	rememberAddress(store, "D0:4F:7E:12:34:56")
	if !strings.Contains(buf.String(), "failed to store "+session.KeyAddress) {
		t.Errorf("store failure not logged, got %q", buf.String())
	}
}

func TestParseButton(t *testing.T) {
	cases := map[string]casio.WatchButton{
		"lower-right": casio.ButtonLowerRight,
		" NONE ":      casio.ButtonNone,
		"find":        casio.ButtonFind,
		"lower-left":  casio.ButtonLowerLeft,
		"bogus":       casio.ButtonLowerLeft,
	}
	for in, want := range cases {
		if got := parseButton(in); got != want {
			t.Errorf("parseButton(%q) = %v, want %v", in, got, want)
		}
	}
}
