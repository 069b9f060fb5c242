// Package config loads and persists the shell's YAML settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle quickly.
	// Use a short linear backoff: baseDelay * (1..maxRenameRetry).
	renameRetryBaseDelay = 10 * time.Millisecond

	appDirName = "gopherlol-shell"
	// PathEnvVar overrides the config file location.
	PathEnvVar = "GOPHERLOL_SHELL_CONFIG"
	// ShortcutEnvVar overrides the configured shortcut when EnvShortcut is set.
	ShortcutEnvVar = "SHORTCUT"
)

// defaultConfigDirFn is a test seam; tests override it to simulate
// directory-resolution failures in validateConfigPath.
var defaultConfigDirFn = defaultConfigDir
var userHomeDirFn = os.UserHomeDir

// Config is the shell runtime configuration.
type Config struct {
	// Shortcut is a "modifier+key" spec. Empty selects the platform default.
	Shortcut    string `yaml:"shortcut" json:"shortcut"`
	EnvShortcut bool   `yaml:"env_shortcut" json:"env_shortcut"`
	LoadDotEnv  bool   `yaml:"load_dotenv" json:"load_dotenv"`
	HideOnBlur  bool   `yaml:"hide_on_blur" json:"hide_on_blur"`
	// SearchURL is the gopherlol endpoint queries are sent to as ?q=<query>.
	SearchURL string       `yaml:"search_url" json:"search_url"`
	Server    ServerConfig `yaml:"server" json:"server"`
	Window    WindowConfig `yaml:"window" json:"window"`
	Log       LogConfig    `yaml:"log" json:"log"`
}

// ServerConfig describes the auxiliary server spawned at startup.
type ServerConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args" json:"args"`
	// Dir is resolved against the shell's working directory when relative.
	Dir string `yaml:"dir" json:"dir"`
}

// WindowConfig holds the launcher window geometry.
type WindowConfig struct {
	Width       int  `yaml:"width" json:"width"`
	Height      int  `yaml:"height" json:"height"`
	AlwaysOnTop bool `yaml:"always_on_top" json:"always_on_top"`
}

// LogConfig controls the log sink and file rotation.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// File empty means <config dir>/logs/shell.log.
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		EnvShortcut: true,
		LoadDotEnv:  true,
		HideOnBlur:  true,
		SearchURL:   "http://localhost:8080/",
		Server: ServerConfig{
			Enabled: true,
			Command: "go",
			Args:    []string{"run", "."},
			Dir:     filepath.Join("..", ".."),
		},
		Window: WindowConfig{
			Width:       680,
			Height:      96,
			AlwaysOnTop: true,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// DefaultPath resolves the config file path. PathEnvVar wins when set;
// otherwise LOCALAPPDATA is preferred over APPDATA, falling back to
// ~/.config and then to os.TempDir() if the home directory cannot be
// resolved.
func DefaultPath() string {
	if override := strings.TrimSpace(os.Getenv(PathEnvVar)); override != "" {
		return override
	}
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName, "config.yaml")
}

// Load reads the config file. A missing or empty file yields defaults.
// A parse failure returns defaults together with the error so callers can
// keep running.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaultsAndValidate(&cfg)
	return cfg, nil
}

// EnsureFile writes the default config if missing and returns the loaded config.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Clone returns a deep copy of src.
func Clone(src Config) Config {
	dst := src
	dst.Server.Args = cloneStringSlice(src.Server.Args)
	return dst
}

func cloneStringSlice(src []string) []string {
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Save validates cfg and writes it atomically.
// Returns the normalized config that was actually written to disk.
func Save(path string, cfg Config) (Config, error) {
	normalizedPath, err := validateConfigPath(path)
	if err != nil {
		return cfg, err
	}
	cfg = Clone(cfg)
	applyDefaultsAndValidate(&cfg)

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", path)
	return cfg, nil
}

// ResolveShortcutSpec picks the shortcut spec to register: the SHORTCUT
// environment variable when EnvShortcut is set and it is non-blank, else the
// configured value. An empty result selects the platform default.
func ResolveShortcutSpec(cfg Config, lookupEnv func(string) (string, bool)) string {
	if cfg.EnvShortcut && lookupEnv != nil {
		if value, ok := lookupEnv(ShortcutEnvVar); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return cfg.Shortcut
}

// ResolveDir returns Dir as an absolute path, joining relative values onto base.
func (s ServerConfig) ResolveDir(base string) string {
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		return base
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

// SlogLevel maps Level onto slog. Unknown values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	if level, ok := logLevels[strings.ToLower(strings.TrimSpace(l.Level))]; ok {
		return level
	}
	return slog.LevelInfo
}

// ResolveFile returns the log file path, defaulting next to configPath.
func (l LogConfig) ResolveFile(configPath string) string {
	if file := strings.TrimSpace(l.File); file != "" {
		return file
	}
	return filepath.Join(filepath.Dir(configPath), "logs", "shell.log")
}

// atomicWrite writes config data using temp-file + rename to avoid partial
// writes and retries rename on Windows to tolerate transient file locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[WARN-CONFIG] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// validateConfigPath normalizes path and enforces that config writes stay
// inside the default config directory.
func validateConfigPath(path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", errors.New("config path required")
	}
	absolutePath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}

	expectedDir, err := defaultConfigDirFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	absoluteExpectedDir, err := filepath.Abs(expectedDir)
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	if !pathWithinDir(absolutePath, absoluteExpectedDir) {
		return "", fmt.Errorf("save config: path outside config directory: %q", absolutePath)
	}
	return absolutePath, nil
}

func defaultConfigDir() (string, error) {
	return filepath.Dir(DefaultPath()), nil
}

// pathWithinDir blocks directory traversal by ensuring path is under dir.
// filepath.Rel returns an absolute path for Windows cross-drive escapes.
func pathWithinDir(path string, dir string) bool {
	relativePath, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(relativePath)
}

// applyDefaultsAndValidate fills missing defaults and repairs invalid values
// in-place. Every repair is logged; none is fatal.
func applyDefaultsAndValidate(cfg *Config) {
	defaults := DefaultConfig()
	if isZeroConfig(*cfg) {
		*cfg = defaults
		return
	}

	cfg.Shortcut = strings.TrimSpace(cfg.Shortcut)
	validateSearchURL(cfg, defaults.SearchURL)
	validateServer(cfg)
	validateWindow(cfg, defaults.Window)
	validateLog(cfg, defaults.Log)
}

func validateSearchURL(cfg *Config, fallback string) {
	raw := strings.TrimSpace(cfg.SearchURL)
	if raw == "" {
		cfg.SearchURL = fallback
		return
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		slog.Warn("[WARN-CONFIG] search_url must be an http(s) URL, using default",
			"value", raw, "default", fallback)
		cfg.SearchURL = fallback
		return
	}
	cfg.SearchURL = raw
}

func validateServer(cfg *Config) {
	cfg.Server.Command = strings.TrimSpace(cfg.Server.Command)
	if cfg.Server.Enabled && cfg.Server.Command == "" {
		slog.Warn("[WARN-CONFIG] server.command is empty, server launch disabled")
		cfg.Server.Enabled = false
	}
	if cfg.Server.Args == nil {
		cfg.Server.Args = []string{}
	}
}

func validateWindow(cfg *Config, defaults WindowConfig) {
	if cfg.Window.Width <= 0 {
		if cfg.Window.Width < 0 {
			slog.Warn("[WARN-CONFIG] window.width must be positive, using default", "value", cfg.Window.Width)
		}
		cfg.Window.Width = defaults.Width
	}
	if cfg.Window.Height <= 0 {
		if cfg.Window.Height < 0 {
			slog.Warn("[WARN-CONFIG] window.height must be positive, using default", "value", cfg.Window.Height)
		}
		cfg.Window.Height = defaults.Height
	}
}

func validateLog(cfg *Config, defaults LogConfig) {
	level := strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if _, ok := logLevels[level]; !ok {
		if level != "" {
			slog.Warn("[WARN-CONFIG] unknown log.level, using info", "value", cfg.Log.Level)
		}
		level = defaults.Level
	}
	cfg.Log.Level = level
	cfg.Log.File = strings.TrimSpace(cfg.Log.File)
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = defaults.MaxSizeMB
	}
	if cfg.Log.MaxBackups < 0 {
		cfg.Log.MaxBackups = defaults.MaxBackups
	}
	if cfg.Log.MaxAgeDays < 0 {
		cfg.Log.MaxAgeDays = defaults.MaxAgeDays
	}
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func isZeroConfig(cfg Config) bool {
	// reflect.DeepEqual guards against field-addition drift that manual checks miss.
	return reflect.DeepEqual(cfg, Config{})
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
