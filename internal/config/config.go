package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"semdiff/internal/difftree"
	"semdiff/internal/engine"
	"semdiff/internal/errors"
	"semdiff/internal/severity"
	"semdiff/internal/slogutil"
)

// Dir is the per-project configuration directory.
const Dir = ".semdiff"

// EnvPrefix prefixes environment overrides, e.g. SEMDIFF_PREVENTCHANGE or
// SEMDIFF_ENGINE_COMMAND.
const EnvPrefix = "SEMDIFF"

// Config represents the complete semdiff configuration
type Config struct {
	Format          string        `json:"format" mapstructure:"format"`
	Output          string        `json:"output,omitempty" mapstructure:"output"`
	PreventChange   string        `json:"preventChange" mapstructure:"preventChange"`
	ReportThreshold string        `json:"reportThreshold,omitempty" mapstructure:"reportThreshold"`
	Targets         []string      `json:"targets,omitempty" mapstructure:"targets"`
	AllowEmpty      []string      `json:"allowEmpty,omitempty" mapstructure:"allowEmpty"`
	Exclude         []string      `json:"exclude" mapstructure:"exclude"`
	Workers         int           `json:"workers" mapstructure:"workers"`
	CurrentVersion  string        `json:"currentVersion,omitempty" mapstructure:"currentVersion"`
	Engine          EngineConfig  `json:"engine" mapstructure:"engine"`
	Logging         LoggingConfig `json:"logging" mapstructure:"logging"`
}

// EngineConfig selects and configures the diff engine
type EngineConfig struct {
	Kind    string   `json:"kind" mapstructure:"kind"`
	Command string   `json:"command,omitempty" mapstructure:"command"`
	Args    []string `json:"args,omitempty" mapstructure:"args"`
	Timeout string   `json:"timeout,omitempty" mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level,omitempty" mapstructure:"level"`
	File       string `json:"file,omitempty" mapstructure:"file"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Format:        "xml",
		PreventChange: severity.None.String(),
		Exclude:       []string{string(difftree.ElementReference)},
		Workers:       runtime.GOMAXPROCS(0),
		Engine: EngineConfig{
			Kind:    string(engine.KindAuto),
			Timeout: "2m",
		},
		Logging: LoggingConfig{
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from <dir>/.semdiff/config.{json,yaml,toml}
// and SEMDIFF_* environment variables on top of the defaults.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("format", def.Format)
	v.SetDefault("output", "")
	v.SetDefault("preventChange", def.PreventChange)
	v.SetDefault("reportThreshold", "")
	v.SetDefault("targets", []string{})
	v.SetDefault("allowEmpty", []string{})
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("currentVersion", "")
	v.SetDefault("engine.kind", def.Engine.Kind)
	v.SetDefault("engine.command", "")
	v.SetDefault("engine.args", []string{})
	v.SetDefault("engine.timeout", def.Engine.Timeout)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.maxSize", def.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", def.Logging.MaxBackups)

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(dir, Dir))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New(errors.ConfigInvalid, "failed to read configuration", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to decode configuration", err)
	}
	return &cfg, nil
}

// Save writes the configuration to <dir>/.semdiff/config.json
func (c *Config) Save(dir string) (string, error) {
	configDir := filepath.Join(dir, Dir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(configDir, "config.json")
	return path, os.WriteFile(path, append(data, '\n'), 0o644)
}

// Validate checks every value that can be checked without running a
// comparison.
func (c *Config) Validate() error {
	if _, err := severity.Parse(c.PreventChange); err != nil {
		return thresholdError("preventChange", err)
	}
	if c.ReportThreshold != "" {
		if _, err := severity.Parse(c.ReportThreshold); err != nil {
			return thresholdError("reportThreshold", err)
		}
	}
	if c.Workers < 0 {
		return invalid("workers", "must not be negative")
	}
	for _, e := range c.Exclude {
		if !knownElement(e) {
			return invalid("exclude", fmt.Sprintf("unknown element %q", e))
		}
	}
	kind, err := engine.ParseKind(c.Engine.Kind)
	if err != nil {
		return invalid("engine.kind", err.Error())
	}
	if kind == engine.KindExec && c.Engine.Command == "" {
		return invalid("engine.command", "required when engine.kind is exec")
	}
	if c.Engine.Timeout != "" {
		if d, err := time.ParseDuration(c.Engine.Timeout); err != nil || d < 0 {
			return invalid("engine.timeout", fmt.Sprintf("invalid duration %q", c.Engine.Timeout))
		}
	}
	if c.Logging.Level != "" {
		if _, err := slogutil.ParseLevel(c.Logging.Level); err != nil {
			return invalid("logging.level", err.Error())
		}
	}
	if c.Logging.MaxSize != "" && slogutil.ParseSize(c.Logging.MaxSize) <= 0 {
		return invalid("logging.maxSize", fmt.Sprintf("invalid size %q", c.Logging.MaxSize))
	}
	return nil
}

// Prevent returns the gate threshold. Call Validate first.
func (c *Config) Prevent() severity.Level {
	l, _ := severity.Parse(c.PreventChange)
	return l
}

// Report returns the threshold used to select reported changes. It defaults
// to the gate threshold.
func (c *Config) Report() severity.Level {
	if c.ReportThreshold == "" {
		return c.Prevent()
	}
	l, _ := severity.Parse(c.ReportThreshold)
	return l
}

// ExcludedElements returns Exclude as diff tree elements.
func (c *Config) ExcludedElements() []difftree.Element {
	out := make([]difftree.Element, 0, len(c.Exclude))
	for _, e := range c.Exclude {
		out = append(out, difftree.Element(strings.ToLower(strings.TrimSpace(e))))
	}
	return out
}

// EngineOptions converts the engine section. Call Validate first.
func (c *Config) EngineOptions() engine.Options {
	kind, _ := engine.ParseKind(c.Engine.Kind)
	var timeout time.Duration
	if c.Engine.Timeout != "" {
		timeout, _ = time.ParseDuration(c.Engine.Timeout)
	}
	return engine.Options{
		Kind:    kind,
		Command: c.Engine.Command,
		Args:    c.Engine.Args,
		Timeout: timeout,
	}
}

var elements = []difftree.Element{
	difftree.ElementAssembly,
	difftree.ElementReference,
	difftree.ElementType,
	difftree.ElementMethod,
	difftree.ElementProperty,
	difftree.ElementField,
	difftree.ElementEvent,
	difftree.ElementAttribute,
	difftree.ElementDetail,
}

func knownElement(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range elements {
		if string(e) == s {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

func invalid(field, message string) error {
	cause := &ConfigError{Field: field, Message: message}
	return errors.New(errors.ConfigInvalid, "invalid configuration", cause)
}

func thresholdError(field string, err error) error {
	cause := &ConfigError{Field: field, Message: err.Error()}
	return errors.New(errors.InvalidThreshold, "invalid severity threshold", cause)
}
