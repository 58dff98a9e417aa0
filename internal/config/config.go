// Package config loads revival settings from JSONC files and command-line
// overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"

	"github.com/erazemk/revival/internal/db"
	"github.com/erazemk/revival/internal/lifecycle"
	"github.com/erazemk/revival/internal/photo"
)

// FileName is the project config file looked up in the working directory.
const FileName = "revival.json"

// DefaultDBPath is the database file used when none is configured.
const DefaultDBPath = "revival.sqlite3"

// Errors returned by Load.
var (
	ErrFileNotFound = errors.New("config file not found")
	ErrFileRead     = errors.New("cannot read config file")
	ErrInvalid      = errors.New("invalid config")
	ErrDBPathEmpty  = errors.New("db_path cannot be empty")
)

// Config holds all settings.
type Config struct {
	DBPath            string `json:"db_path"`
	BusyTimeoutMS     int    `json:"busy_timeout_ms"`
	LogFile           string `json:"log_file,omitempty"`
	EditConflictCheck string `json:"edit_conflict_check"`
	PhotoMaxDimension int    `json:"photo_max_dimension"`
	PhotoJPEGQuality  int    `json:"photo_jpeg_quality"`

	// Resolved values (not serialized)
	WorkDir string  `json:"-"`
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string
	Project string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:            DefaultDBPath,
		BusyTimeoutMS:     int(db.DefaultBusyTimeout / time.Millisecond),
		EditConflictCheck: string(lifecycle.ConflictExact),
		PhotoMaxDimension: photo.DefaultMaxDimension,
		PhotoJPEGQuality:  photo.DefaultQuality,
	}
}

// BusyTimeout returns the configured SQLite busy timeout.
func (c Config) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// ConflictCheck returns the parsed edit conflict check. Load has already
// validated it.
func (c Config) ConflictCheck() lifecycle.ConflictCheck {
	check, err := lifecycle.ParseConflictCheck(c.EditConflictCheck)
	if err != nil {
		return lifecycle.ConflictExact
	}
	return check
}

// Photos returns the photo processor for the configured limits.
func (c Config) Photos() photo.Processor {
	return photo.Processor{MaxDimension: c.PhotoMaxDimension, Quality: c.PhotoJPEGQuality}
}

// DBPathAbs returns the database path resolved against the working directory.
func (c Config) DBPathAbs() string {
	return c.resolve(c.DBPath)
}

// LogFileAbs returns the log file path resolved against the working
// directory, or "" when no log file is configured.
func (c Config) LogFileAbs() string {
	if c.LogFile == "" {
		return ""
	}
	return c.resolve(c.LogFile)
}

func (c Config) resolve(path string) string {
	if path == ":memory:" || filepath.IsAbs(path) || c.WorkDir == "" {
		return path
	}
	return filepath.Join(c.WorkDir, path)
}

// Overrides are settings given on the command line. Empty fields are unset.
type Overrides struct {
	DBPath  string
	LogFile string
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string            // -C/--cwd value; if empty, os.Getwd() is used
	ConfigPath string            // -c/--config value
	Overrides  Overrides         // command-line settings
	Env        map[string]string // environment variables
}

// Load resolves the configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/revival/config.json or ~/.config/revival/config.json)
// 3. Project config (revival.json in the working directory, if it exists)
// 4. Explicit config file via ConfigPath, which replaces 3 and must exist
// 5. Command-line overrides.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		global, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg = merge(cfg, global)
			cfg.Sources.Global = path
		}
	}

	path, mustExist := filepath.Join(workDir, FileName), false
	if input.ConfigPath != "" {
		path, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
	}
	project, loaded, err := loadFile(path, mustExist)
	if err != nil {
		return Config{}, err
	}
	if loaded {
		cfg = merge(cfg, project)
		cfg.Sources.Project = path
	}

	if input.Overrides.DBPath != "" {
		cfg.DBPath = input.Overrides.DBPath
	}
	if input.Overrides.LogFile != "" {
		cfg.LogFile = input.Overrides.LogFile
	}

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cfg.WorkDir = workDir
	return cfg, nil
}

// globalPath returns the user config path, or "" if no home is known.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "revival", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "revival", "config.json")
	}
	return ""
}

// fileConfig mirrors Config with pointers so that keys present in a file
// can be told apart from missing ones.
type fileConfig struct {
	DBPath            *string `json:"db_path"`
	BusyTimeoutMS     *int    `json:"busy_timeout_ms"`
	LogFile           *string `json:"log_file"`
	EditConflictCheck *string `json:"edit_conflict_check"`
	PhotoMaxDimension *int    `json:"photo_max_dimension"`
	PhotoJPEGQuality  *int    `json:"photo_jpeg_quality"`
}

// loadFile reads one config file. If mustExist is false a missing file is not
// an error and reports loaded=false.
func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case os.IsNotExist(err) && mustExist:
			return fileConfig{}, false, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		case os.IsNotExist(err):
			return fileConfig{}, false, nil
		default:
			return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrFileRead, path, err)
		}
	}

	fc, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}
	if fc.DBPath != nil && *fc.DBPath == "" {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, ErrDBPathEmpty)
	}
	return fc, true, nil
}

func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return fc, nil
}

func merge(base Config, overlay fileConfig) Config {
	if overlay.DBPath != nil {
		base.DBPath = *overlay.DBPath
	}
	if overlay.BusyTimeoutMS != nil {
		base.BusyTimeoutMS = *overlay.BusyTimeoutMS
	}
	if overlay.LogFile != nil {
		base.LogFile = *overlay.LogFile
	}
	if overlay.EditConflictCheck != nil {
		base.EditConflictCheck = *overlay.EditConflictCheck
	}
	if overlay.PhotoMaxDimension != nil {
		base.PhotoMaxDimension = *overlay.PhotoMaxDimension
	}
	if overlay.PhotoJPEGQuality != nil {
		base.PhotoJPEGQuality = *overlay.PhotoJPEGQuality
	}
	return base
}

func validate(cfg Config) error {
	if cfg.DBPath == "" {
		return ErrDBPathEmpty
	}
	if cfg.BusyTimeoutMS < 0 {
		return fmt.Errorf("busy_timeout_ms must not be negative, got %d", cfg.BusyTimeoutMS)
	}
	if _, err := lifecycle.ParseConflictCheck(cfg.EditConflictCheck); err != nil {
		return err
	}
	if cfg.PhotoMaxDimension < 1 {
		return fmt.Errorf("photo_max_dimension must be positive, got %d", cfg.PhotoMaxDimension)
	}
	if cfg.PhotoJPEGQuality < 1 || cfg.PhotoJPEGQuality > 100 {
		return fmt.Errorf("photo_jpeg_quality must be between 1 and 100, got %d", cfg.PhotoJPEGQuality)
	}
	return nil
}

// Format renders the settings as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}
	return string(data), nil
}
