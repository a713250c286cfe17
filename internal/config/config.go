// Package config loads quasi.yaml.
//
// A missing file yields Default(). Values are validated with
// go-playground/validator after the environment overrides are applied.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the configuration file looked up in the working directory.
	FileName = "quasi.yaml"

	// EnvClasspath overrides macro.classpath. Entries are separated by the
	// platform path-list separator.
	EnvClasspath = "QUASI_CLASSPATH"

	// MaxFileSize bounds the configuration file.
	MaxFileSize = 1024 * 1024
)

// Class loader cache modes.
const (
	LoaderPerInvocation = "per-invocation"
	LoaderSession       = "session"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// Config is the complete configuration.
type Config struct {
	Macro     MacroConfig     `yaml:"macro"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// MacroConfig controls macro discovery and invocation.
type MacroConfig struct {
	// Classpath lists manifest files, directories and plugin files in
	// lookup order.
	Classpath []string `yaml:"classpath" validate:"dive,required"`
	// ConstructorProbing enables the constructor probing entry point for
	// providers registered with factories instead of expanders.
	ConstructorProbing bool   `yaml:"constructor_probing"`
	ClassLoader        string `yaml:"class_loader" validate:"oneof=per-invocation session"`
	// Watch invalidates the session loader when the classpath changes.
	Watch bool `yaml:"watch"`
	// Annotations are simple names always treated as macro annotations.
	Annotations []string `yaml:"annotations" validate:"dive,required"`
}

// StoreConfig selects where expansion records are kept.
type StoreConfig struct {
	Kind string `yaml:"kind" validate:"oneof=memory badger"`
	Path string `yaml:"path" validate:"required_if=Kind badger"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	Metrics     bool   `yaml:"metrics"`
	MetricsFile string `yaml:"metrics_file"`
	Trace       bool   `yaml:"trace"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Macro: MacroConfig{
			ClassLoader: LoaderPerInvocation,
		},
		Store:   StoreConfig{Kind: StoreMemory},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes data over the defaults.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("config exceeds %d bytes", MaxFileSize)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads path. An empty path reads FileName when it exists. The
// environment overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	c := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if c, err = Parse(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		c.resolvePaths(filepath.Dir(path))
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// resolvePaths makes relative classpath and store paths relative to dir.
func (c *Config) resolvePaths(dir string) {
	for i, p := range c.Macro.Classpath {
		if p != "" && !filepath.IsAbs(p) {
			c.Macro.Classpath[i] = filepath.Join(dir, p)
		}
	}
	if c.Store.Path != "" && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(dir, c.Store.Path)
	}
}

// ApplyEnv applies environment overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvClasspath); v != "" {
		c.Macro.Classpath = SplitClasspath(v)
	}
}

// SplitClasspath splits a path list and drops empty entries.
func SplitClasspath(s string) []string {
	var out []string
	for _, p := range filepath.SplitList(s) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Macro.Watch && c.Macro.ClassLoader != LoaderSession {
		return errors.New("invalid config: macro.watch requires class_loader: session")
	}
	return nil
}
