package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/subslide/internal/logging"
)

// Prompt configures the re-anchor prompt.
type Prompt struct {
	Lines int `toml:"lines"`
}

// Files configures the names of files created next to the input.
type Files struct {
	BackupSuffix string `toml:"backup_suffix"`
	TempSuffix   string `toml:"temp_suffix"`
}

// Logging configures log verbosity.
type Logging struct {
	Level string `toml:"level"`
}

// Config is the on-disk configuration.
type Config struct {
	Prompt  Prompt  `toml:"prompt"`
	Files   Files   `toml:"files"`
	Logging Logging `toml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Prompt:  Prompt{Lines: 10},
		Files:   Files{BackupSuffix: "_orig", TempSuffix: "_temp"},
		Logging: Logging{Level: "info"},
	}
}

// DefaultPath returns ~/.config/subslide/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "subslide", "config.toml"), nil
}

// Load reads path, or the default location when path is empty. A missing
// default file yields Default(); a missing explicit file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Prompt.Lines < 1 {
		return fmt.Errorf("prompt.lines must be at least 1, got %d", c.Prompt.Lines)
	}
	backup := strings.TrimSpace(c.Files.BackupSuffix)
	temp := strings.TrimSpace(c.Files.TempSuffix)
	if backup == "" || temp == "" {
		return errors.New("files.backup_suffix and files.temp_suffix must not be empty")
	}
	if backup == temp {
		return fmt.Errorf("files.backup_suffix and files.temp_suffix must differ, both are %q", backup)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
