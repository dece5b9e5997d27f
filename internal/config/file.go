package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rohmanhakim/test-redirection/pkg/fileutil"
	"gopkg.in/yaml.v3"
)

// optionsDTO is the on-disk shape of an options file. Durations are in
// milliseconds. Absent keys keep their default.
type optionsDTO struct {
	Concurrency           *int     `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Delay                 *int64   `json:"delay,omitempty" yaml:"delay,omitempty"`
	Jitter                *int64   `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	RandomSeed            *int64   `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	IgnoreQueryParameters *bool    `json:"ignoreQueryParameters,omitempty" yaml:"ignoreQueryParameters,omitempty"`
	ReplaceHost           *string  `json:"replaceHost,omitempty" yaml:"replaceHost,omitempty"`
	ReplaceFromHost       *string  `json:"replaceFromHost,omitempty" yaml:"replaceFromHost,omitempty"`
	ReplaceToHost         *string  `json:"replaceToHost,omitempty" yaml:"replaceToHost,omitempty"`
	User                  *string  `json:"user,omitempty" yaml:"user,omitempty"`
	Method                *string  `json:"method,omitempty" yaml:"method,omitempty"`
	Resolver              *string  `json:"resolver,omitempty" yaml:"resolver,omitempty"`
	Timeout               *int64   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRedirects          *int     `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	Retries               *int     `json:"retries,omitempty" yaml:"retries,omitempty"`
	BackoffInitial        *int64   `json:"backoffInitial,omitempty" yaml:"backoffInitial,omitempty"`
	BackoffMultiplier     *float64 `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier,omitempty"`
	BackoffMax            *int64   `json:"backoffMax,omitempty" yaml:"backoffMax,omitempty"`
	CSVDelimiter          *string  `json:"csvDelimiter,omitempty" yaml:"csvDelimiter,omitempty"`
	Verbose               *bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	OnlyErrors            *bool    `json:"onlyErrors,omitempty" yaml:"onlyErrors,omitempty"`
	NoColor               *bool    `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	LogLevel              *string  `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat             *string  `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	LogFile               *string  `json:"logFile,omitempty" yaml:"logFile,omitempty"`
	ReportFile            *string  `json:"reportFile,omitempty" yaml:"reportFile,omitempty"`
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (dto optionsDTO) apply(c *Config) *Config {
	if dto.Concurrency != nil {
		c.WithConcurrency(*dto.Concurrency)
	}
	if dto.Delay != nil {
		c.WithDelay(ms(*dto.Delay))
	}
	if dto.Jitter != nil {
		c.WithJitter(ms(*dto.Jitter))
	}
	if dto.RandomSeed != nil {
		c.WithRandomSeed(*dto.RandomSeed)
	}
	if dto.IgnoreQueryParameters != nil {
		c.WithIgnoreQueryParameters(*dto.IgnoreQueryParameters)
	}
	if dto.ReplaceHost != nil {
		c.WithReplaceHost(*dto.ReplaceHost)
	}
	if dto.ReplaceFromHost != nil {
		c.WithReplaceFromHost(*dto.ReplaceFromHost)
	}
	if dto.ReplaceToHost != nil {
		c.WithReplaceToHost(*dto.ReplaceToHost)
	}
	if dto.User != nil {
		c.WithUser(*dto.User)
	}
	if dto.Method != nil {
		c.WithMethod(*dto.Method)
	}
	if dto.Resolver != nil {
		c.WithResolverKind(ResolverKind(*dto.Resolver))
	}
	if dto.Timeout != nil {
		c.WithTimeout(ms(*dto.Timeout))
	}
	if dto.MaxRedirects != nil {
		c.WithMaxRedirects(*dto.MaxRedirects)
	}
	if dto.Retries != nil {
		c.WithMaxAttempt(*dto.Retries + 1)
	}
	if dto.BackoffInitial != nil {
		c.WithBackoffInitialDuration(ms(*dto.BackoffInitial))
	}
	if dto.BackoffMultiplier != nil {
		c.WithBackoffMultiplier(*dto.BackoffMultiplier)
	}
	if dto.BackoffMax != nil {
		c.WithBackoffMaxDuration(ms(*dto.BackoffMax))
	}
	if dto.CSVDelimiter != nil {
		c.WithCSVDelimiter(*dto.CSVDelimiter)
	}
	if dto.Verbose != nil {
		c.WithVerbose(*dto.Verbose)
	}
	if dto.OnlyErrors != nil {
		c.WithOnlyErrors(*dto.OnlyErrors)
	}
	if dto.NoColor != nil {
		c.WithNoColor(*dto.NoColor)
	}
	if dto.LogLevel != nil {
		c.WithLogLevel(*dto.LogLevel)
	}
	if dto.LogFormat != nil {
		c.WithLogFormat(*dto.LogFormat)
	}
	if dto.LogFile != nil {
		c.WithLogFile(*dto.LogFile)
	}
	if dto.ReportFile != nil {
		c.WithReportFile(*dto.ReportFile)
	}
	return c
}

// WithConfigFile returns a builder holding the defaults overridden by the
// options file at path. JSON is assumed unless the extension is .yaml or .yml.
// The caller may keep chaining With... calls before Build.
func WithConfigFile(path string) (*Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	dto := optionsDTO{}
	switch fileutil.GetFileExtension(path) {
	case "yaml", "yml":
		err = yaml.Unmarshal(content, &dto)
	default:
		err = json.Unmarshal(content, &dto)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return dto.apply(WithDefault()), nil
}
