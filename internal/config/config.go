package config

import (
	"strings"
	"time"
)

type ResolverKind string

const (
	ResolverHTTP ResolverKind = "http"
	ResolverCurl ResolverKind = "curl"
)

type Config struct {
	//===============
	// Scheduling
	//===============
	// Maximum number of redirect checks in flight at once
	concurrency int
	// Fixed wait every check holds its slot for after it is classified
	delay time.Duration
	// Randomized variation added on top of the delay
	jitter time.Duration
	// Controls the random number generator used for jitter and backoff
	randomSeed int64

	//===============
	// Comparison
	//===============
	// Strip the query component of both URLs before comparing, unless a case says otherwise
	ignoreQueryParameters bool
	// Host written into both `from` and `to` when no side-specific host is set
	replaceHost string
	// Host written into `from`
	replaceFromHost string
	// Host written into `to`
	replaceToHost string

	//===============
	// Resolution
	//===============
	// Basic auth credentials, "user:password"
	user string
	// HTTP method used when a case does not name one
	method string
	// Which resolver backend follows the redirect chain
	resolverKind ResolverKind
	// Maximum time of a single resolution
	timeout time.Duration
	// Maximum hops followed before giving up
	maxRedirects int
	// maximum attempt of a resolution; 1 means no retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff
	backoffMaxDuration time.Duration

	//===============
	// Input
	//===============
	// Column separator of CSV redirect files
	csvDelimiter string

	//===============
	// Output
	//===============
	verbose    bool
	onlyErrors bool
	noColor    bool
	logLevel   string
	logFormat  string
	logFile    string
	// Where the run report is written; empty disables it
	reportFile string
}

// WithDefault creates a new Config builder holding the default value of every option.
func WithDefault() *Config {
	defaultConfig := Config{
		concurrency:            10,
		delay:                  100 * time.Millisecond,
		jitter:                 0,
		randomSeed:             time.Now().UnixNano(),
		ignoreQueryParameters:  false,
		method:                 "GET",
		resolverKind:           ResolverHTTP,
		timeout:                10 * time.Second,
		maxRedirects:           50,
		maxAttempt:             1,
		backoffInitialDuration: 200 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     5 * time.Second,
		csvDelimiter:           " ",
		logLevel:               "warn",
		logFormat:              "console",
	}
	return &defaultConfig
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithDelay(delay time.Duration) *Config {
	c.delay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithIgnoreQueryParameters(ignore bool) *Config {
	c.ignoreQueryParameters = ignore
	return c
}

func (c *Config) WithReplaceHost(host string) *Config {
	c.replaceHost = host
	return c
}

func (c *Config) WithReplaceFromHost(host string) *Config {
	c.replaceFromHost = host
	return c
}

func (c *Config) WithReplaceToHost(host string) *Config {
	c.replaceToHost = host
	return c
}

func (c *Config) WithUser(user string) *Config {
	c.user = user
	return c
}

func (c *Config) WithMethod(method string) *Config {
	c.method = method
	return c
}

func (c *Config) WithResolverKind(kind ResolverKind) *Config {
	c.resolverKind = kind
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithMaxRedirects(maxRedirects int) *Config {
	c.maxRedirects = maxRedirects
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithCSVDelimiter(delimiter string) *Config {
	c.csvDelimiter = delimiter
	return c
}

func (c *Config) WithVerbose(verbose bool) *Config {
	c.verbose = verbose
	return c
}

func (c *Config) WithOnlyErrors(onlyErrors bool) *Config {
	c.onlyErrors = onlyErrors
	return c
}

func (c *Config) WithNoColor(noColor bool) *Config {
	c.noColor = noColor
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogFormat(format string) *Config {
	c.logFormat = format
	return c
}

func (c *Config) WithLogFile(path string) *Config {
	c.logFile = path
	return c
}

func (c *Config) WithReportFile(path string) *Config {
	c.reportFile = path
	return c
}

// Build normalizes and validates the options, returning an immutable copy.
// Validation failures wrap ErrInvalidConfig.
func (c *Config) Build() (Config, error) {
	c.method = strings.ToUpper(strings.TrimSpace(c.method))
	c.resolverKind = ResolverKind(strings.ToLower(string(c.resolverKind)))
	c.logLevel = strings.ToLower(strings.TrimSpace(c.logLevel))
	c.logFormat = strings.ToLower(strings.TrimSpace(c.logFormat))

	if err := validate(*c); err != nil {
		return Config{}, err
	}
	return *c, nil
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) Delay() time.Duration {
	return c.delay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) IgnoreQueryParameters() bool {
	return c.ignoreQueryParameters
}

func (c Config) ReplaceHost() string {
	return c.replaceHost
}

func (c Config) ReplaceFromHost() string {
	return c.replaceFromHost
}

func (c Config) ReplaceToHost() string {
	return c.replaceToHost
}

// FromHost returns the host written into `from`, falling back to ReplaceHost.
func (c Config) FromHost() string {
	if c.replaceFromHost != "" {
		return c.replaceFromHost
	}
	return c.replaceHost
}

// ToHost returns the host written into `to`, falling back to ReplaceHost.
func (c Config) ToHost() string {
	if c.replaceToHost != "" {
		return c.replaceToHost
	}
	return c.replaceHost
}

func (c Config) User() string {
	return c.user
}

func (c Config) Method() string {
	return c.method
}

func (c Config) ResolverKind() ResolverKind {
	return c.resolverKind
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) MaxRedirects() int {
	return c.maxRedirects
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) CSVDelimiter() string {
	return c.csvDelimiter
}

func (c Config) Verbose() bool {
	return c.verbose
}

func (c Config) OnlyErrors() bool {
	return c.onlyErrors
}

func (c Config) NoColor() bool {
	return c.noColor
}

// LogLevel returns the configured level. Verbose mode raises the default
// level to debug.
func (c Config) LogLevel() string {
	if c.verbose && c.logLevel == "warn" {
		return "debug"
	}
	return c.logLevel
}

func (c Config) LogFormat() string {
	return c.logFormat
}

func (c Config) LogFile() string {
	return c.logFile
}

func (c Config) ReportFile() string {
	return c.reportFile
}
