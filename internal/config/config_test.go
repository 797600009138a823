package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	headless := false
	cfg := &Config{
		DefaultSession: "work",
		PhoneNumber:    "5511999999999",
		Browser:        Browser{BinPath: "/usr/bin/chromium", Headless: &headless},
		Takeover:       Takeover{OnConflict: true, DelayMs: 3000},
		Media:          Media{FFmpegPath: "/usr/bin/ffmpeg"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "work" {
		t.Errorf("DefaultSession = %q", loaded.DefaultSession)
	}
	if loaded.Browser.BinPath != "/usr/bin/chromium" {
		t.Errorf("Browser.BinPath = %q", loaded.Browser.BinPath)
	}
	if loaded.Browser.HeadlessEnabled() {
		t.Error("HeadlessEnabled() = true, want explicit false preserved")
	}
	if !loaded.Takeover.OnConflict || loaded.Takeover.DelayMs != 3000 {
		t.Errorf("Takeover = %+v", loaded.Takeover)
	}
}

func TestHeadlessDefaultsOn(t *testing.T) {
	var b Browser
	if !b.HeadlessEnabled() {
		t.Error("HeadlessEnabled() = false for unset value, want true")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := Save(path, &Config{DefaultSession: "main"}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
