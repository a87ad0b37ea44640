package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/illarion/lockdir/internal/crypto"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Algorithm != crypto.AlgoAESGCM {
		t.Errorf("Default algorithm %q, want %q", cfg.Algorithm, crypto.AlgoAESGCM)
	}
	if len(cfg.Roots) != 0 {
		t.Errorf("Default config should have no walk roots, got %v", cfg.Roots)
	}
	if cfg.KeystorePath == "" || cfg.LogPath == "" || cfg.ManifestPath == "" {
		t.Error("Default state paths should not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Algorithm != crypto.AlgoAESGCM {
		t.Errorf("Algorithm %q, want default", cfg.Algorithm)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lockdir.toml")
	content := `
keystore = "` + filepath.ToSlash(filepath.Join(dir, "keys", "master.key")) + `"
algo = "chacha20-poly1305"
roots = ["` + filepath.ToSlash(dir) + `"]
extensions = [".locked"]

[scrypt]
n = 16384
r = 8
p = 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Algorithm != crypto.AlgoChaCha20 {
		t.Errorf("Algorithm %q, want chacha20-poly1305", cfg.Algorithm)
	}
	if len(cfg.Roots) != 1 {
		t.Errorf("Roots %v, want one entry", cfg.Roots)
	}
	if cfg.Scrypt.N != 16384 {
		t.Errorf("Scrypt N %d, want 16384", cfg.Scrypt.N)
	}
	if len(cfg.ExcludeSuffixes) != 1 || cfg.ExcludeSuffixes[0] != ".locked" {
		t.Errorf("ExcludeSuffixes %v, want [.locked]", cfg.ExcludeSuffixes)
	}
}

func TestLoadAppendsOwnStateToExclusions(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	found := false
	for _, prefix := range cfg.ExcludePrefixes {
		if strings.HasSuffix(prefix, "master.key") {
			found = true
		}
	}
	if !found {
		t.Error("Keystore path should be in exclusion prefixes")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown algorithm", func(c *Config) { c.Algorithm = "rot13" }},
		{"empty keystore", func(c *Config) { c.KeystorePath = ""; c.UseKeyring = false }},
		{"scrypt N not power of two", func(c *Config) { c.Scrypt.N = 1000 }},
		{"scrypt N too small", func(c *Config) { c.Scrypt.N = 1 }},
		{"scrypt r zero", func(c *Config) { c.Scrypt.R = 0 }},
		{"empty root", func(c *Config) { c.Roots = []string{"  "} }},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}
}

func TestKeyringOnlyConfigValidates(t *testing.T) {
	cfg := Default()
	cfg.KeystorePath = ""
	cfg.UseKeyring = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Keyring-backed config should validate: %v", err)
	}
}
