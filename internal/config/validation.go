package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"imecompose/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs semantic validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateStyle(&c.Style)...)
	errs = append(errs, validateEditor(&c.Editor)...)
	errs = append(errs, validateWindow(&c.Window)...)
	errs = append(errs, validateIBus(&c.IBus)...)
	errs = append(errs, validateJournal(&c.Journal)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLogging(c *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(c.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Message: err.Error()})
	}
	if _, err := logging.ParseFormat(c.Format); err != nil {
		errs = append(errs, ValidationError{Field: "logging.format", Message: err.Error()})
	}

	switch strings.ToLower(c.Output) {
	case "", "stdout", "stderr":
	case "file", "both":
		if c.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "required when output is " + c.Output,
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid output %q (must be stdout, stderr, file or both)", c.Output),
		})
	}

	if c.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_size_mb", Message: "must not be negative"})
	}
	if c.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "logging.max_backups", Message: "must not be negative"})
	}
	return errs
}

func validateStyle(c *StyleConfig) ValidationErrors {
	var errs ValidationErrors

	colors := []struct {
		field, value string
	}{
		{"style.text", c.Text},
		{"style.preedit_text", c.PreeditText},
		{"style.preedit_background", c.PreeditBackground},
	}
	for _, col := range colors {
		if _, err := ParseColor(col.value); err != nil {
			errs = append(errs, ValidationError{Field: col.field, Message: err.Error()})
		}
	}

	if c.HighlightAlpha < 0 || c.HighlightAlpha > 0xff {
		errs = append(errs, ValidationError{
			Field:   "style.highlight_alpha",
			Message: fmt.Sprintf("must be between 0 and 255, got %d", c.HighlightAlpha),
		})
	}
	return errs
}

func validateEditor(c *EditorConfig) ValidationErrors {
	var errs ValidationErrors
	if c.SingleLineWidth < 0 {
		errs = append(errs, ValidationError{Field: "editor.single_line_width", Message: "must not be negative"})
	}
	if c.MultiLineWidth < 0 {
		errs = append(errs, ValidationError{Field: "editor.multi_line_width", Message: "must not be negative"})
	}
	return errs
}

func validateWindow(c *WindowConfig) ValidationErrors {
	var errs ValidationErrors
	if c.Width <= 0 {
		errs = append(errs, ValidationError{Field: "window.width", Message: "must be positive"})
	}
	if c.Height <= 0 {
		errs = append(errs, ValidationError{Field: "window.height", Message: "must be positive"})
	}
	return errs
}

func validateIBus(c *IBusConfig) ValidationErrors {
	var errs ValidationErrors
	if c.BufferSize < 0 {
		errs = append(errs, ValidationError{Field: "ibus.buffer_size", Message: "must not be negative"})
	}
	if c.Enabled && c.ClientName == "" {
		errs = append(errs, ValidationError{Field: "ibus.client_name", Message: "required when ibus is enabled"})
	}
	return errs
}

func validateJournal(c *JournalConfig) ValidationErrors {
	var errs ValidationErrors
	if c.Enabled && c.Path == "" {
		errs = append(errs, ValidationError{Field: "journal.path", Message: "required when journal is enabled"})
	}
	return errs
}

//go:embed schema.json
var schemaJSON string

const schemaURL = "config.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks a JSON document against the configuration
// schema. It catches structural mistakes such as misspelled keys that
// decoding into Config silently ignores.
func ValidateDocument(data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return validateInstance(instance)
}

// ValidateSchema checks c against the configuration schema.
func ValidateSchema(c *Config) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return ValidateDocument(data)
}

func validateInstance(instance any) error {
	schema, err := configSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateFile checks a configuration file of any supported format against
// the schema. Fields left out of the file are not required.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any
	switch filepath.Ext(path) {
	case ".json":
		return ValidateDocument(data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		_, err = toml.Decode(string(data), &doc)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}
	return ValidateDocument(normalized)
}
