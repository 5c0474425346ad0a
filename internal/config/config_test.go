package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imecompose/internal/ime"
	"imecompose/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.NoError(t, ValidateSchema(cfg))

	assert.Equal(t, Version, cfg.Version)
	assert.True(t, cfg.IBus.Enabled)
	assert.False(t, cfg.Journal.Enabled)
	assert.True(t, strings.HasSuffix(cfg.Journal.Path, "journal.db"))

	style, err := cfg.Style.Style()
	require.NoError(t, err)
	assert.Equal(t, ime.DefaultStyle(), style)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("IMECOMPOSE_CONFIG", "")
	path := ConfigPath()
	assert.True(t, strings.HasSuffix(path, "config.toml"), path)
	assert.Contains(t, path, appName)

	t.Setenv("IMECOMPOSE_CONFIG", "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", ConfigPath())
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Window, cfg.Window)
}

func TestLoadFormats(t *testing.T) {
	t.Run("toml", func(t *testing.T) {
		cfg, err := Load(filepath.Join("testdata", "config.example.toml"))
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Equal(t, "入力してください", cfg.Editor.Hint)
		assert.Equal(t, float32(200), cfg.Editor.SingleLineWidth)
		assert.False(t, cfg.IBus.Enabled)
		assert.True(t, cfg.Journal.Enabled)
		assert.Equal(t, 200, cfg.Style.HighlightAlpha)
	})

	t.Run("json", func(t *testing.T) {
		cfg, err := Load(filepath.Join("testdata", "config.example.json"))
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "stdout", cfg.Logging.Output)
		// Sections absent from the file keep their defaults.
		assert.Equal(t, DefaultConfig().Editor, cfg.Editor)
	})

	t.Run("yaml", func(t *testing.T) {
		cfg, err := Load(filepath.Join("testdata", "config.example.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "#ff0000", cfg.Style.PreeditText)
		assert.Equal(t, "#ffffff", cfg.Style.Text)
		assert.Equal(t, float32(320), cfg.Editor.MultiLineWidth)
	})
}

func TestLoadAutoDetect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imecompose.conf")
	require.NoError(t, os.WriteFile(path, []byte("[window]\nwidth = 1024\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Window.Width)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[window\nwidth = "), 0600))
	_, err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode TOML")

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[style]\ntext = \"red\"\n"), 0600))
	_, err = Load(invalid)
	require.Error(t, err)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "style.text", verrs[0].Field)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = 0
	cfg.Logging.Level = "loud"
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""
	cfg.Style.HighlightAlpha = 300
	cfg.Window.Width = 0
	cfg.Journal.Enabled = true
	cfg.Journal.Path = ""

	err := cfg.Validate()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{
		"version",
		"logging.level",
		"logging.file_path",
		"style.highlight_alpha",
		"window.width",
		"journal.path",
	}, fields)
	assert.Contains(t, err.Error(), "config: window.width: must be positive")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("IMECOMPOSE_LOG_LEVEL", "error")
	t.Setenv("IMECOMPOSE_IBUS", "false")
	t.Setenv("IMECOMPOSE_IBUS_ADDRESS", "unix:path=/tmp/ibus")
	t.Setenv("IMECOMPOSE_JOURNAL_PATH", "/tmp/j.db")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.False(t, cfg.IBus.Enabled)
	assert.Equal(t, "unix:path=/tmp/ibus", cfg.IBus.Address)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/tmp/j.db", cfg.Journal.Path)
}

func TestSaveAndReload(t *testing.T) {
	for _, ext := range []string{".toml", ".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "config"+ext)
			cfg := DefaultConfig()
			cfg.Window.Title = "saved"
			cfg.Style.PreeditBackground = "#102030"

			require.NoError(t, SaveConfig(cfg, path))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

			require.NoError(t, ValidateFile(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "saved", loaded.Window.Title)
			assert.Equal(t, "#102030", loaded.Style.PreeditBackground)
		})
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	_, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestValidateFileExamples(t *testing.T) {
	for _, name := range []string{"config.example.toml", "config.example.json", "config.example.yaml"} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, ValidateFile(filepath.Join("testdata", name)))
		})
	}
}

func TestValidateFileRejectsUnknownKeys(t *testing.T) {
	err := ValidateFile(filepath.Join("testdata", "misspelled.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")

	// Decoding ignores the unknown key, so only the schema catches it.
	_, err = Load(filepath.Join("testdata", "misspelled.toml"))
	assert.NoError(t, err)
}

func TestValidateDocumentRejectsBadColor(t *testing.T) {
	err := ValidateDocument([]byte(`{"style": {"text": "white"}}`))
	assert.Error(t, err)
	assert.NoError(t, ValidateDocument([]byte(`{"style": {"text": "#fff"}}`)))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#008040")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0, G: 0x80, B: 0x40, A: 0xff}, c)

	c, err = ParseColor("#fa0")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xaa, B: 0, A: 0xff}, c)

	_, err = ParseColor("green")
	assert.Error(t, err)
}

func TestStyleAlphaClamps(t *testing.T) {
	assert.Equal(t, uint8(0), StyleConfig{HighlightAlpha: -4}.Alpha())
	assert.Equal(t, uint8(0xff), StyleConfig{HighlightAlpha: 999}.Alpha())
	assert.Equal(t, uint8(0x90), StyleConfig{HighlightAlpha: 0x90}.Alpha())
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	lc, err := cfg.LoggerConfig()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
	assert.Equal(t, "stderr", lc.Output)
	assert.Equal(t, int64(10), lc.MaxSize)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = filepath.Join(dir, "logs", "imecompose.log")
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(dir, "data", "journal.db")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, filepath.Join(dir, "logs"))
	assert.DirExists(t, filepath.Join(dir, "data"))
}

func TestPlatformDataDirOverride(t *testing.T) {
	t.Setenv("IMECOMPOSE_DATA_DIR", "/srv/ime")
	assert.Equal(t, "/srv/ime", PlatformDataDir())
}

func TestLoaderHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)
	require.NoError(t, loader.Watch())
	defer loader.Close()

	changed := make(chan *Config, 4)
	loader.OnChange(func(c *Config) { changed <- c })

	cfg := DefaultConfig()
	cfg.Style.PreeditText = "#123456"
	require.NoError(t, SaveConfig(cfg, path))

	select {
	case got := <-changed:
		assert.Equal(t, "#123456", got.Style.PreeditText)
		assert.Equal(t, "#123456", loader.Config().Style.PreeditText)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestLoaderKeepsConfigOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(t, err)
	require.NoError(t, loader.Watch())
	defer loader.Close()

	require.NoError(t, os.WriteFile(path, []byte("[window]\nwidth = -1\n"), 0600))

	select {
	case err := <-loader.Errors():
		assert.Contains(t, err.Error(), "reload config")
	case <-time.After(5 * time.Second):
		t.Fatal("no error after invalid write")
	}
	assert.Equal(t, DefaultConfig().Window.Width, loader.Config().Window.Width)
}

func TestLoaderConfigIsACopy(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "config.toml"))
	_, err := loader.Load()
	require.NoError(t, err)

	cfg := loader.Config()
	cfg.Window.Title = "changed"
	assert.Equal(t, DefaultConfig().Window.Title, loader.Config().Window.Title)

	clone := cfg.Clone()
	clone.Style.Text = "#000000"
	assert.Equal(t, "#ffffff", cfg.Style.Text)
}
