package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "imecompose"

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/imecompose/
//   - Linux:   $XDG_DATA_HOME/imecompose/ or ~/.local/share/imecompose/
//   - Windows: %APPDATA%\imecompose\
//
// IMECOMPOSE_DATA_DIR overrides all of them.
func PlatformDataDir() string {
	if dir := os.Getenv("IMECOMPOSE_DATA_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "windows":
		return windowsDir("APPDATA", filepath.Join("AppData", "Roaming"))
	default:
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
}

// PlatformConfigDir returns the platform-specific configuration directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/imecompose/
//   - Linux:   $XDG_CONFIG_HOME/imecompose/ or ~/.config/imecompose/
//   - Windows: %APPDATA%\imecompose\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "windows":
		return windowsDir("APPDATA", filepath.Join("AppData", "Roaming"))
	default:
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
}

// PlatformLogDir returns the platform-specific log directory.
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", appName)
	case "windows":
		return filepath.Join(windowsDir("LOCALAPPDATA", filepath.Join("AppData", "Local")), "logs")
	default:
		return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
	}
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), fallback, appName)
}

func windowsDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), fallback, appName)
}

// SupportedConfigFormats returns the config file extensions Load understands.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile searches the working directory and then the config
// directory for a config file. It returns the empty string if none exists.
func FindConfigFile() string {
	for _, dir := range []string{".", PlatformConfigDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
