package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/portalwatch/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}
	flag := cmd.Flags().Lookup("output")
	if flag == nil || flag.Shorthand != "o" || flag.DefValue != config.DefaultConfigFile {
		t.Errorf("unexpected output flag: %+v", flag)
	}
	if cmd.Flags().Lookup("force") == nil || cmd.Flags().Lookup("xdg") == nil {
		t.Error("expected force and xdg flags")
	}
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("writes a loadable template", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "portalwatch.yaml")
		var buf bytes.Buffer
		cmd := NewInitCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("config not written: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
		if !strings.Contains(buf.String(), "portalwatch.local.yaml") {
			t.Errorf("expected local file hint, got %s", buf.String())
		}

		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("template does not load: %v", err)
		}
		if cfg.Portal.Origin != config.DefaultOrigin || cfg.Captcha.MaxAttempts != 3 {
			t.Errorf("unexpected template values: %+v", cfg)
		}
		if err := cfg.Validate(); err == nil {
			t.Error("template must not validate before the account is filled in")
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "portalwatch.yaml")
		if err := os.WriteFile(path, []byte("keep"), 0600); err != nil {
			t.Fatal(err)
		}
		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", path})
		if err := cmd.Execute(); err == nil {
			t.Fatal("expected error for existing file")
		}
		data, _ := os.ReadFile(path)
		if string(data) != "keep" {
			t.Error("existing file was modified")
		}

		cmd = NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", path, "-f"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error with -f: %v", err)
		}
	})
}
