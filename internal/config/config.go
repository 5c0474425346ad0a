// Package config handles configuration loading, validation, and management
// for imecompose.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"imecompose/internal/ime"
	"imecompose/internal/logging"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete application configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Style controls how compositions are drawn.
	Style StyleConfig `toml:"style" json:"style" yaml:"style"`

	Editor EditorConfig `toml:"editor" json:"editor" yaml:"editor"`

	Window WindowConfig `toml:"window" json:"window" yaml:"window"`

	// IBus configures the input method connection on Linux.
	IBus IBusConfig `toml:"ibus" json:"ibus" yaml:"ibus"`

	// Journal configures the commit journal.
	Journal JournalConfig `toml:"journal" json:"journal" yaml:"journal"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is stdout, stderr, file or both.
	Output string `toml:"output" json:"output" yaml:"output"`

	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int64  `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// StyleConfig holds the composition colors as "#rrggbb" strings.
type StyleConfig struct {
	Text              string `toml:"text" json:"text" yaml:"text"`
	PreeditText       string `toml:"preedit_text" json:"preedit_text" yaml:"preedit_text"`
	PreeditBackground string `toml:"preedit_background" json:"preedit_background" yaml:"preedit_background"`

	// HighlightAlpha is the opacity of the preedit background, 0-255.
	HighlightAlpha int `toml:"highlight_alpha" json:"highlight_alpha" yaml:"highlight_alpha"`
}

// EditorConfig configures the demo fields.
type EditorConfig struct {
	// SingleLineWidth and MultiLineWidth are desired widths in dp.
	SingleLineWidth float32 `toml:"single_line_width" json:"single_line_width" yaml:"single_line_width"`
	MultiLineWidth  float32 `toml:"multi_line_width" json:"multi_line_width" yaml:"multi_line_width"`

	Hint string `toml:"hint" json:"hint" yaml:"hint"`
}

// WindowConfig configures the demo window.
type WindowConfig struct {
	Title  string `toml:"title" json:"title" yaml:"title"`
	Width  int    `toml:"width" json:"width" yaml:"width"`
	Height int    `toml:"height" json:"height" yaml:"height"`
}

// IBusConfig configures the IBus input context client.
type IBusConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Address overrides IBUS_ADDRESS.
	Address    string `toml:"address" json:"address" yaml:"address"`
	ClientName string `toml:"client_name" json:"client_name" yaml:"client_name"`
	BufferSize int    `toml:"buffer_size" json:"buffer_size" yaml:"buffer_size"`
}

// JournalConfig configures the sqlite commit journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "imecompose.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Style: StyleConfig{
			Text:              "#ffffff",
			PreeditText:       "#00ff00",
			PreeditBackground: "#008040",
			HighlightAlpha:    0x90,
		},
		Editor: EditorConfig{
			SingleLineWidth: 240,
			MultiLineWidth:  480,
			Hint:            "Type here",
		},
		Window: WindowConfig{
			Title:  "imepad",
			Width:  640,
			Height: 480,
		},
		IBus: IBusConfig{
			Enabled:    true,
			ClientName: "imecompose",
			BufferSize: 64,
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    filepath.Join(PlatformDataDir(), "journal.db"),
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	if v := os.Getenv("IMECOMPOSE_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist. Environment overrides are applied and the result is
// validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	return NewLoader(path).Load()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Variables are prefixed with IMECOMPOSE_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("IMECOMPOSE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IMECOMPOSE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("IMECOMPOSE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}

	if v := os.Getenv("IMECOMPOSE_IBUS"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.IBus.Enabled = enabled
		}
	}
	if v := os.Getenv("IMECOMPOSE_IBUS_ADDRESS"); v != "" {
		c.IBus.Address = v
	}

	if v := os.Getenv("IMECOMPOSE_JOURNAL_PATH"); v != "" {
		c.Journal.Path = v
		c.Journal.Enabled = true
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// EnsureDirectories creates the directories for configured files.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if strings.EqualFold(c.Logging.Output, "file") || strings.EqualFold(c.Logging.Output, "both") {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}
	if c.Journal.Enabled {
		dirs = append(dirs, filepath.Dir(c.Journal.Path))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LoggerConfig converts the logging section into a logger configuration.
func (c *Config) LoggerConfig() (*logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	if c.Logging.Output != "" {
		lc.Output = c.Logging.Output
	}
	if c.Logging.FilePath != "" {
		lc.FilePath = c.Logging.FilePath
	}
	if c.Logging.MaxSizeMB > 0 {
		lc.MaxSize = c.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups > 0 {
		lc.MaxBackups = c.Logging.MaxBackups
	}
	return lc, nil
}

// ParseColor parses a "#rrggbb" or "#rgb" color.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[0] == '#' {
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Style converts the style section into composition colors.
func (s StyleConfig) Style() (ime.Style, error) {
	text, err := ParseColor(s.Text)
	if err != nil {
		return ime.Style{}, fmt.Errorf("style.text: %w", err)
	}
	fg, err := ParseColor(s.PreeditText)
	if err != nil {
		return ime.Style{}, fmt.Errorf("style.preedit_text: %w", err)
	}
	bg, err := ParseColor(s.PreeditBackground)
	if err != nil {
		return ime.Style{}, fmt.Errorf("style.preedit_background: %w", err)
	}
	return ime.Style{Plain: text, PreeditFG: fg, PreeditBG: bg}, nil
}

// Alpha returns HighlightAlpha clamped to a byte.
func (s StyleConfig) Alpha() uint8 {
	switch {
	case s.HighlightAlpha < 0:
		return 0
	case s.HighlightAlpha > 0xff:
		return 0xff
	}
	return uint8(s.HighlightAlpha)
}

func decodeJSON(data []byte, cfg *Config) error {
	return json.Unmarshal(data, cfg)
}

func decodeYAML(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}
