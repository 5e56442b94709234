// Package config defines the application configuration and the functions
// that load it from YAML files, .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/loan-risk/pkg/constants"
	"github.com/iwvelando/loan-risk/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for loan-risk.
type Configuration struct {
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging,omitempty"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output,omitempty"`
	Evaluation EvaluationConfig `mapstructure:"evaluation" yaml:"evaluation,omitempty"`
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// EvaluationConfig controls how batches are evaluated.
type EvaluationConfig struct {
	Strict  bool `mapstructure:"strict" yaml:"strict,omitempty"`
	Workers int  `mapstructure:"workers" yaml:"workers,omitempty"`
}

// ExtractionConfig points at the PDF extraction backend. An empty URL
// disables PDF input.
type ExtractionConfig struct {
	URL     string        `mapstructure:"url" yaml:"url,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A .env file in the working directory, when present,
// is loaded into the environment first so LOANRISK_* overrides can live there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
// Environment overrides apply exactly as in LoadConfiguration.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

// Defaults returns the configuration used when no file is supplied.
func Defaults() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Only reachable if an environment override is malformed.
		return &Configuration{
			Logging:    LoggingConfig{Level: "info", Format: constants.DefaultLogFormat},
			Output:     OutputConfig{Format: constants.OutputFormatPretty},
			Evaluation: EvaluationConfig{Workers: constants.DefaultWorkers},
			Extraction: ExtractionConfig{Timeout: constants.DefaultExtractionTimeoutSeconds * time.Second},
		}
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can override it during Unmarshal.
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", constants.DefaultLogFormat)
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("evaluation.strict", false)
	v.SetDefault("evaluation.workers", constants.DefaultWorkers)
	v.SetDefault("extraction.url", "")
	v.SetDefault("extraction.timeout", constants.DefaultExtractionTimeoutSeconds*time.Second)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations that cannot be run.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}

	if c.Evaluation.Workers < 1 {
		return fmt.Errorf("evaluation.workers must be at least 1, got %d", c.Evaluation.Workers)
	}

	if c.Extraction.URL != "" {
		u, err := url.Parse(c.Extraction.URL)
		if err != nil {
			return fmt.Errorf("invalid extraction url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("extraction url must use http or https, got %q", c.Extraction.URL)
		}
		if c.Extraction.Timeout <= 0 {
			return fmt.Errorf("extraction.timeout must be positive, got %s", c.Extraction.Timeout)
		}
	}

	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Extraction.URL == "" {
		warnings = append(warnings, "extraction.url is not set, PDF input is disabled")
	}
	if c.Evaluation.Strict && c.Output.Format == constants.OutputFormatCSV {
		warnings = append(warnings, "evaluation.strict has no effect on csv output, defaulted fields are only reported in pretty and json output")
	}
	if c.Logging.OutputFile != "" && strings.EqualFold(c.Logging.Format, "console") {
		warnings = append(warnings, "console log format written to a file, consider json")
	}

	return warnings
}
