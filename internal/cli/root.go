package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/aggregator"
	"github.com/rohmanhakim/test-redirection/internal/build"
	"github.com/rohmanhakim/test-redirection/internal/config"
	"github.com/rohmanhakim/test-redirection/internal/scheduler"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ErrTestsFailed is returned when at least one redirect did not match.
var ErrTestsFailed = errors.New("redirection tests failed")

// ErrRunAborted is returned when the run stopped before any test ran.
// The cause has already been rendered by the reporter.
var ErrRunAborted = errors.New("redirection run aborted")

var (
	optionsFile           string
	concurrency           int
	delayMs               int
	jitter                time.Duration
	randomSeed            int64
	ignoreQueryParameters bool
	replaceHost           string
	replaceFromHost       string
	replaceToHost         string
	user                  string
	method                string
	resolverKind          string
	timeout               time.Duration
	maxRedirects          int
	retries               int
	csvDelimiter          string
	verbose               bool
	onlyErrors            bool
	noColor               bool
	logLevel              string
	logFormat             string
	logFile               string
	reportFile            string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "test-redirection <configPath>",
	Short: "Check that URLs redirect where they should.",
	Long: `test-redirection follows the redirect chain of every "from" URL listed in
a redirect file and compares where it ends with the expected "to" URL.

Redirect files are CSV (one "from to" pair per line), JSON or YAML
(a list of {from, to, ignoreQueryParameters, method}).

The exit status is 0 when every redirect matched and 1 otherwise.`,
	Version:       build.FullVersion(),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// runRoot is the RunE of rootCmd. It is assigned in init because it reaches
// rootCmd through InitConfigWithError, which would otherwise form an
// initialization cycle.
func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := InitConfigWithError()
	if err != nil {
		return err
	}

	summary, err := runTests(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if !summary.Success() {
		return ErrTestsFailed
	}
	return nil
}

func runTests(ctx context.Context, cfg config.Config, path string, out io.Writer) (aggregator.Summary, error) {
	s, err := scheduler.NewScheduler(cfg, out)
	if err != nil {
		return aggregator.Summary{}, err
	}
	execution, err := s.Execute(ctx, path)
	if err != nil {
		return aggregator.Summary{}, fmt.Errorf("%w: %w", ErrRunAborted, err)
	}
	return execution.Summary, nil
}

// Execute runs the root command with the process arguments and exits with
// its status. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Run executes the root command with args and returns the exit status.
func Run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrTestsFailed), errors.Is(err, ErrRunAborted):
		return 1
	default:
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
}

func init() {
	rootCmd.RunE = runRoot
	rootCmd.SetVersionTemplate(build.Info("test-redirection") + "\n")

	defaults := config.WithDefault()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&optionsFile, "options-file", "", "JSON or YAML file holding any of these options; flags take precedence")
	flags.IntVarP(&concurrency, "concurrency", "c", defaults.Concurrency(), "number of redirects checked at once")
	flags.IntVarP(&delayMs, "delay", "d", int(defaults.Delay().Milliseconds()), "milliseconds every check waits after it completes")
	flags.DurationVar(&jitter, "jitter", defaults.Jitter(), "random jitter added to the delay")
	flags.Int64Var(&randomSeed, "random-seed", 0, "seed for jitter and backoff randomness (0 for current time)")
	flags.BoolVar(&ignoreQueryParameters, "ignore-query-parameters", defaults.IgnoreQueryParameters(), "ignore query parameters when comparing URLs")
	flags.StringVar(&replaceHost, "replace-host", "", "host written into both from and to URLs")
	flags.StringVar(&replaceFromHost, "replace-from-host", "", "host written into from URLs (overrides --replace-host)")
	flags.StringVar(&replaceToHost, "replace-to-host", "", "host written into to URLs (overrides --replace-host)")
	flags.StringVarP(&user, "user", "u", "", "basic auth credentials as user:password")
	flags.StringVarP(&method, "method", "X", defaults.Method(), "HTTP method used to request from URLs")
	flags.StringVar(&resolverKind, "resolver", string(defaults.ResolverKind()), "redirect resolver backend: http or curl")
	flags.DurationVar(&timeout, "timeout", defaults.Timeout(), "timeout of a single redirect resolution")
	flags.IntVar(&maxRedirects, "max-redirects", defaults.MaxRedirects(), "maximum redirects followed per URL")
	flags.IntVar(&retries, "retries", defaults.MaxAttempt()-1, "retries of a resolution that failed on the network")
	flags.StringVar(&csvDelimiter, "csv-delimiter", defaults.CSVDelimiter(), "column delimiter of CSV redirect files")
	flags.BoolVarP(&verbose, "verbose", "v", defaults.Verbose(), "show passing redirects with the URL they reached")
	flags.BoolVar(&onlyErrors, "only-errors", defaults.OnlyErrors(), "show failing redirects only")
	flags.BoolVar(&noColor, "no-color", defaults.NoColor(), "disable colored output")
	flags.StringVar(&logLevel, "log-level", "warn", "log level: trace, debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", defaults.LogFormat(), "log format on stderr: console or json")
	flags.StringVar(&logFile, "log-file", "", "also write JSON logs to this rotated file")
	flags.StringVar(&reportFile, "report-file", "", "write the run report to this file (YAML for .yaml/.yml, JSON otherwise)")
}

func flagChanged(name string) bool {
	f := rootCmd.PersistentFlags().Lookup(name)
	return f != nil && f.Changed
}

// InitConfigWithError layers the options file (if any) over the defaults
// and the flags set on the command line over both, returning any errors.
func InitConfigWithError() (config.Config, error) {
	configBuilder := config.WithDefault()

	if optionsFile != "" {
		fromFile, err := config.WithConfigFile(optionsFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing options from file: %w", err)
		}
		configBuilder = fromFile
	}

	// Override with CLI flag values where provided
	if flagChanged("concurrency") {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}

	if flagChanged("delay") {
		configBuilder = configBuilder.WithDelay(time.Duration(delayMs) * time.Millisecond)
	}

	if flagChanged("jitter") {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if flagChanged("random-seed") && randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if flagChanged("ignore-query-parameters") {
		configBuilder = configBuilder.WithIgnoreQueryParameters(ignoreQueryParameters)
	}

	if flagChanged("replace-host") {
		configBuilder = configBuilder.WithReplaceHost(replaceHost)
	}

	if flagChanged("replace-from-host") {
		configBuilder = configBuilder.WithReplaceFromHost(replaceFromHost)
	}

	if flagChanged("replace-to-host") {
		configBuilder = configBuilder.WithReplaceToHost(replaceToHost)
	}

	if flagChanged("user") {
		configBuilder = configBuilder.WithUser(user)
	}

	if flagChanged("method") {
		configBuilder = configBuilder.WithMethod(method)
	}

	if flagChanged("resolver") {
		configBuilder = configBuilder.WithResolverKind(config.ResolverKind(resolverKind))
	}

	if flagChanged("timeout") {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if flagChanged("max-redirects") {
		configBuilder = configBuilder.WithMaxRedirects(maxRedirects)
	}

	if flagChanged("retries") {
		configBuilder = configBuilder.WithMaxAttempt(retries + 1)
	}

	if flagChanged("csv-delimiter") {
		configBuilder = configBuilder.WithCSVDelimiter(csvDelimiter)
	}

	if flagChanged("verbose") {
		configBuilder = configBuilder.WithVerbose(verbose)
	}

	if flagChanged("only-errors") {
		configBuilder = configBuilder.WithOnlyErrors(onlyErrors)
	}

	if flagChanged("no-color") {
		configBuilder = configBuilder.WithNoColor(noColor)
	}

	if flagChanged("log-level") {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if flagChanged("log-format") {
		configBuilder = configBuilder.WithLogFormat(logFormat)
	}

	if flagChanged("log-file") {
		configBuilder = configBuilder.WithLogFile(logFile)
	}

	if flagChanged("report-file") {
		configBuilder = configBuilder.WithReportFile(reportFile)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// ResetFlags restores every flag to its default and marks it unset.
func ResetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	rootCmd.Flags().VisitAll(reset)
}

// Test helper functions to set flag values from tests. They behave as if
// the flag was given on the command line.
func SetFlagForTest(name string, value string) error {
	return rootCmd.PersistentFlags().Set(name, value)
}

func SetOptionsFileForTest(path string) {
	_ = SetFlagForTest("options-file", path)
}

func SetConcurrencyForTest(conc int) {
	_ = SetFlagForTest("concurrency", fmt.Sprint(conc))
}

func SetDelayForTest(ms int) {
	_ = SetFlagForTest("delay", fmt.Sprint(ms))
}

func SetRetriesForTest(n int) {
	_ = SetFlagForTest("retries", fmt.Sprint(n))
}
