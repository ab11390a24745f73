// Package config loads wt configuration from JSONC files with the usual
// precedence: defaults, then the global user config, then the project config
// (or an explicit file), then CLI overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// DataFile is the single JSON document holding the item collection.
	DataFile string `json:"data_file"`
	// AttachDir is where uploaded attachment files are stored.
	AttachDir string `json:"attach_dir"`
	// DefaultHourlyRate pre-fills the rate on completion.
	DefaultHourlyRate float64 `json:"default_hourly_rate"`
	// ArchiveOnComplete archives items as soon as they are completed.
	ArchiveOnComplete bool `json:"archive_on_complete"`
	// ArchiveOnApprove archives billable items on approval instead of on
	// payment confirmation.
	ArchiveOnApprove bool `json:"archive_on_approve"`
	// DevUsername/DevPassword gate the developer role. Supplied here or via
	// WT_DEV_USERNAME / WT_DEV_PASSWORD; never hard-coded.
	DevUsername string `json:"dev_username,omitempty"`
	DevPassword string `json:"dev_password,omitempty"`
	// ListenAddr is the bind address for wt serve.
	ListenAddr string `json:"listen_addr,omitempty"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Overrides are CLI-level settings that win over every file.
type Overrides struct {
	DataFile    string
	HasDataFile bool
}

// FileName is the default project config file name.
const FileName = ".wt.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
	errDataFileEmpty      = errors.New("data_file cannot be empty")
	errAttachDirEmpty     = errors.New("attach_dir cannot be empty")
	errNegativeRate       = errors.New("default_hourly_rate cannot be negative")
)

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataFile:          "tasks_data.json",
		AttachDir:         "attachments",
		DefaultHourlyRate: 75.0,
		ListenAddr:        ":8787",
	}
}

// globalPath returns the global config file path:
// $XDG_CONFIG_HOME/wt/config.json, or ~/.config/wt/config.json.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "wt", "config.json")
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wt", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "wt", "config.json")
	}

	return ""
}

// Load resolves configuration with the following precedence (highest wins):
// defaults, global user config, project config at workDir/.wt.json (or the
// explicit configPath), CLI overrides, then WT_DEV_USERNAME/WT_DEV_PASSWORD
// from the environment.
func Load(workDir, configPath string, overrides Overrides, env map[string]string) (Config, Sources, error) {
	cfg := Default()

	var sources Sources

	if path := globalPath(env); path != "" {
		loaded, present, ok, err := loadFile(path, false)
		if err != nil {
			return Config{}, Sources{}, err
		}

		if ok {
			sources.Global = path
			cfg = merge(cfg, loaded, present)
		}
	}

	projectFile := filepath.Join(workDir, FileName)
	mustExist := false

	if configPath != "" {
		projectFile = configPath
		if !filepath.IsAbs(projectFile) {
			projectFile = filepath.Join(workDir, projectFile)
		}

		mustExist = true
	}

	loaded, present, ok, err := loadFile(projectFile, mustExist)
	if err != nil {
		return Config{}, Sources{}, err
	}

	if ok {
		sources.Project = projectFile
		cfg = merge(cfg, loaded, present)
	}

	if overrides.HasDataFile {
		cfg.DataFile = overrides.DataFile
	}

	if user := env["WT_DEV_USERNAME"]; user != "" {
		cfg.DevUsername = user
	}

	if pass := env["WT_DEV_PASSWORD"]; pass != "" {
		cfg.DevPassword = pass
	}

	validateErr := validate(cfg)
	if validateErr != nil {
		return Config{}, Sources{}, validateErr
	}

	return cfg, sources, nil
}

// loadFile loads one config file. Missing optional files return ok=false.
// The present map records which keys the file actually set, so merge only
// overrides those.
func loadFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, present, parseErr := parse(data)
	if parseErr != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
	}

	return cfg, present, true, nil
}

func parse(data []byte) (Config, map[string]bool, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	var raw map[string]json.RawMessage

	_ = json.Unmarshal(standardized, &raw)

	present := make(map[string]bool, len(raw))
	for key := range raw {
		present[key] = true
	}

	return cfg, present, nil
}

// merge overlays the keys a file explicitly set onto base.
func merge(base, overlay Config, present map[string]bool) Config {
	if present["data_file"] {
		base.DataFile = overlay.DataFile
	}

	if present["attach_dir"] {
		base.AttachDir = overlay.AttachDir
	}

	if present["default_hourly_rate"] {
		base.DefaultHourlyRate = overlay.DefaultHourlyRate
	}

	if present["archive_on_complete"] {
		base.ArchiveOnComplete = overlay.ArchiveOnComplete
	}

	if present["archive_on_approve"] {
		base.ArchiveOnApprove = overlay.ArchiveOnApprove
	}

	if present["dev_username"] {
		base.DevUsername = overlay.DevUsername
	}

	if present["dev_password"] {
		base.DevPassword = overlay.DevPassword
	}

	if present["listen_addr"] {
		base.ListenAddr = overlay.ListenAddr
	}

	return base
}

func validate(cfg Config) error {
	if cfg.DataFile == "" {
		return errDataFileEmpty
	}

	if cfg.AttachDir == "" {
		return errAttachDirEmpty
	}

	if cfg.DefaultHourlyRate < 0 {
		return errNegativeRate
	}

	return nil
}

// Format returns the config as formatted JSON, with credentials redacted.
func Format(cfg Config) (string, error) {
	if cfg.DevPassword != "" {
		cfg.DevPassword = "<redacted>"
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}
