package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/illarion/lockdir/internal/crypto"
	"github.com/illarion/lockdir/internal/keys"
)

const appDirName = "lockdir"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the immutable run configuration. It is built once at startup
// and passed into each component; nothing mutates it afterwards.
type Config struct {
	// KeystorePath is where the 32-byte master secret lives.
	KeystorePath string `toml:"keystore"`
	// UseKeyring stores the master secret in the OS keyring instead of
	// the keystore file.
	UseKeyring bool `toml:"use_keyring"`
	// LogPath is the append-only run log.
	LogPath string `toml:"logfile"`
	// ManifestPath is the bbolt database tracking encrypted files.
	ManifestPath string `toml:"manifest"`
	// Roots are the directories a bare lock/unlock walks.
	Roots []string `toml:"roots"`
	// ExcludePrefixes are path prefixes never touched by the walker.
	ExcludePrefixes []string `toml:"exclude"`
	// ExcludeSuffixes are filename suffixes never touched by the walker.
	ExcludeSuffixes []string `toml:"extensions"`
	// Algorithm selects the AEAD mode for the whole run.
	Algorithm string `toml:"algo"`
	// Scrypt are the master key stretch costs. Changing them changes
	// every derived key, so they must match between lock and unlock.
	Scrypt ScryptConfig `toml:"scrypt"`
}

// ScryptConfig mirrors keys.ScryptParams for TOML decoding.
type ScryptConfig struct {
	N int `toml:"n"`
	R int `toml:"r"`
	P int `toml:"p"`
}

// Default returns the built-in configuration. State files live under the
// user config directory; no walk roots are configured, so a bulk run
// requires either a config file or explicit path arguments.
func Default() Config {
	stateDir := defaultStateDir()
	return Config{
		KeystorePath: filepath.Join(stateDir, "master.key"),
		LogPath:      filepath.Join(stateDir, "lockdir.log"),
		ManifestPath: filepath.Join(stateDir, "manifest.db"),
		ExcludePrefixes: []string{
			"/proc/",
			"/sys/",
			"/dev/",
			"/run/",
			"/boot/",
		},
		ExcludeSuffixes: []string{".enc"},
		Algorithm:       crypto.AlgoAESGCM,
		Scrypt: ScryptConfig{
			N: keys.DefaultScryptParams.N,
			R: keys.DefaultScryptParams.R,
			P: keys.DefaultScryptParams.P,
		},
	}
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		// No home directory; keep state beside the working directory.
		return "." + appDirName
	}
	return filepath.Join(dir, appDirName)
}

// Load reads a TOML config file over the defaults. A missing file is not
// an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, cfg.finish()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.finish()
		}
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	return cfg, cfg.finish()
}

// finish validates the config and appends the engine's own state files
// to the exclusion prefixes so a walk can never encrypt them.
func (c *Config) finish() error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, own := range []string{c.KeystorePath, c.LogPath, c.ManifestPath} {
		if own == "" {
			continue
		}
		if abs, err := filepath.Abs(own); err == nil {
			c.ExcludePrefixes = append(c.ExcludePrefixes, abs)
		}
	}
	return nil
}

// Validate checks the config for values the engine cannot run with.
func (c *Config) Validate() error {
	if !crypto.KnownAlgorithm(c.Algorithm) {
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Algorithm)
	}
	if c.KeystorePath == "" && !c.UseKeyring {
		return fmt.Errorf("%w: keystore path is empty", ErrInvalidConfig)
	}
	if c.Scrypt.N < 2 || c.Scrypt.N&(c.Scrypt.N-1) != 0 {
		return fmt.Errorf("%w: scrypt N must be a power of two > 1, got %d", ErrInvalidConfig, c.Scrypt.N)
	}
	if c.Scrypt.R <= 0 || c.Scrypt.P <= 0 {
		return fmt.Errorf("%w: scrypt r and p must be positive", ErrInvalidConfig)
	}
	for _, root := range c.Roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("%w: empty walk root", ErrInvalidConfig)
		}
	}
	return nil
}

// ScryptParams converts the TOML cost block into keys.ScryptParams.
func (c *Config) ScryptParams() keys.ScryptParams {
	return keys.ScryptParams{N: c.Scrypt.N, R: c.Scrypt.R, P: c.Scrypt.P}
}
