package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"video-enhancer/internal/domain"
)

//go:embed schema.json
var settingsSchemaJSON []byte

var settingsSchema = mustCompileSchema()

// Store defines persistence operations for app configuration.
type Store interface {
	Load() (domain.AppConfig, error)
	Save(domain.AppConfig) error
}

// JSONStore persists configuration in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed configuration store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads configuration from disk or returns defaults when missing.
// Empty fields are filled from the default layout of the configured project root.
func (s *JSONStore) Load() (domain.AppConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return domain.AppConfig{}, err
	}

	if err := validateSettingsJSON(data); err != nil {
		return domain.AppConfig{}, fmt.Errorf("invalid settings file %s: %w", s.path, err)
	}

	var cfg domain.AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.AppConfig{}, err
	}

	return Normalize(cfg), nil
}

// Save writes configuration as indented JSON and creates parent directories.
func (s *JSONStore) Save(cfg domain.AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// Normalize trims paths, fills blanks from the project layout and
// normalizes enhancement settings.
func Normalize(cfg domain.AppConfig) domain.AppConfig {
	cfg.ProjectRoot = strings.TrimSpace(cfg.ProjectRoot)
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = DefaultConfig().ProjectRoot
	}
	layout := LayoutFor(cfg.ProjectRoot)

	cfg.PythonPath = strings.TrimSpace(cfg.PythonPath)
	if cfg.PythonPath == "" {
		cfg.PythonPath = layout.PythonPath
	}
	cfg.ScriptPath = strings.TrimSpace(cfg.ScriptPath)
	if cfg.ScriptPath == "" {
		cfg.ScriptPath = layout.ScriptPath
	}
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = layout.OutputDir
	}
	cfg.LogLevel = strings.TrimSpace(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	cfg.Settings = cfg.Settings.Normalize()
	return cfg
}

func validateSettingsJSON(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return settingsSchema.Validate(doc)
}

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("settings.schema.json", bytes.NewReader(settingsSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add settings schema: %v", err))
	}
	schema, err := compiler.Compile("settings.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile settings schema: %v", err))
	}
	return schema
}
