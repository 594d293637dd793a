package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Download.OutputDir != "physics_2023_grade13_papers" {
		t.Errorf("OutputDir = %q", cfg.Download.OutputDir)
	}
	if cfg.Download.NavigationTimeout != 45*time.Second {
		t.Errorf("NavigationTimeout = %v, want 45s", cfg.Download.NavigationTimeout)
	}
	if cfg.Download.LastResortTimeout != 60*time.Second {
		t.Errorf("LastResortTimeout = %v, want 60s", cfg.Download.LastResortTimeout)
	}
	if cfg.Download.PoliteDelay != 1500*time.Millisecond {
		t.Errorf("PoliteDelay = %v, want 1.5s", cfg.Download.PoliteDelay)
	}
	if !cfg.Browser.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.Listing.Timeout != 15*time.Second {
		t.Errorf("Listing.Timeout = %v, want 15s", cfg.Listing.Timeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PASTPAPERS_OUTPUT_DIR", "out")
	t.Setenv("PASTPAPERS_HEADLESS", "false")
	t.Setenv("PASTPAPERS_POLITE_DELAY", "3s")
	t.Setenv("PASTPAPERS_BLOCK_KEYWORDS", "ads.example.com, , tracker.io")
	t.Setenv("PASTPAPERS_PORT", "not-a-number")

	cfg := Load()

	if cfg.Download.OutputDir != "out" {
		t.Errorf("OutputDir = %q, want out", cfg.Download.OutputDir)
	}
	if cfg.Browser.Headless {
		t.Error("Headless should be false")
	}
	if cfg.Download.PoliteDelay != 3*time.Second {
		t.Errorf("PoliteDelay = %v, want 3s", cfg.Download.PoliteDelay)
	}
	want := []string{"ads.example.com", "tracker.io"}
	if strings.Join(cfg.Filter.ExtraKeywords, "|") != strings.Join(want, "|") {
		t.Errorf("ExtraKeywords = %v, want %v", cfg.Filter.ExtraKeywords, want)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Server.Port)
	}
}

func TestNormalizeURLs(t *testing.T) {
	got := NormalizeURLs([]string{
		"https://pastpapers.wiki/a/   ?swcfpc=1",
		"   ",
		"\thttps://pastpapers.wiki/b/\n",
		"https://pastpapers.wiki/b/",
	})
	want := []string{
		"https://pastpapers.wiki/a/?swcfpc=1",
		"https://pastpapers.wiki/b/",
		"https://pastpapers.wiki/b/",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d urls, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("url[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDefaultURLs_NormalizeCleanly(t *testing.T) {
	for _, u := range NormalizeURLs(DefaultURLs) {
		if strings.ContainsAny(u, " \t") {
			t.Errorf("normalized url still contains whitespace: %q", u)
		}
	}
}

func TestLoadURLList(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    []string
		wantErr error
	}{
		{
			name:    "plain text",
			file:    "urls.txt",
			content: "# comment\nhttps://a.example/x/\n\nhttps://a.example/y/ \n",
			want:    []string{"https://a.example/x/", "https://a.example/y/"},
		},
		{
			name:    "yaml",
			file:    "urls.yaml",
			content: "urls:\n  - https://a.example/x/\n  - \"https://a.example/y/   ?q=1\"\n",
			want:    []string{"https://a.example/x/", "https://a.example/y/?q=1"},
		},
		{
			name:    "empty",
			file:    "empty.txt",
			content: "# nothing\n",
			wantErr: ErrEmptyList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			got, err := LoadURLList(path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadURLList_MissingFile(t *testing.T) {
	_, err := LoadURLList(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}
