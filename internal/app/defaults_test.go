package app

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestGetDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("DIRSNAP_CONFIG_PATH", "/custom/config.toml")
	t.Setenv("DIRSNAP_HOME", "/custom/home")

	defaults, err := GetDefaults()
	if err != nil {
		t.Fatalf("GetDefaults() error = %v", err)
	}

	if defaults["config_path"] != "/custom/config.toml" {
		t.Errorf("config_path = %q, want env override", defaults["config_path"])
	}
	if defaults["base_dir"] != "/custom/home" {
		t.Errorf("base_dir = %q, want env override", defaults["base_dir"])
	}
	if defaults["log_dir"] != filepath.Join("/custom/home", "log") {
		t.Errorf("log_dir = %q, want derived from base_dir", defaults["log_dir"])
	}
}

func TestGetDefaults_HomeFallback(t *testing.T) {
	t.Setenv("DIRSNAP_CONFIG_PATH", "")
	t.Setenv("DIRSNAP_HOME", "")

	defaults, err := GetDefaults()
	if err != nil {
		t.Fatalf("GetDefaults() error = %v", err)
	}

	if !strings.HasSuffix(defaults["config_path"], filepath.Join(".config", "dirsnap.toml")) {
		t.Errorf("config_path = %q, want ~/.config/dirsnap.toml", defaults["config_path"])
	}
	if !strings.HasSuffix(defaults["base_dir"], filepath.Join(".local", "share", "dirsnap")) {
		t.Errorf("base_dir = %q, want ~/.local/share/dirsnap", defaults["base_dir"])
	}
}
