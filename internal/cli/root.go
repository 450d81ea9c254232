package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/novelpack/novelpack/internal/build"
	"github.com/novelpack/novelpack/internal/config"
	"github.com/novelpack/novelpack/internal/scheduler"
	"github.com/novelpack/novelpack/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile     string
	format      string
	outputDir   string
	concurrency int
	retries     int
	delay       time.Duration
	timeout     time.Duration
	userAgent   string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "novelpack <novel-url>",
	Short: "Package a web novel into an offline-readable artifact.",
	Long: `novelpack is a CLI application that downloads a web novel from its
landing page and packages the metadata and every discovered chapter into a
single EPUB, JSON, or Markdown artifact.

Chapters are fetched concurrently with bounded parallelism and per-request
retry. A chapter that cannot be fetched never aborts the run: it degrades to
a placeholder so the artifact always contains every discovered chapter in
reading order.`,
	Version: build.Stamp(),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Fprintf(os.Stderr, "Error: a novel landing-page URL is required.\n")
			cmd.Usage()
			os.Exit(1)
		}

		cfg := InitConfig(args[0])

		logger, err := newLogger(cfg.Verbose())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched, schedErr := scheduler.NewScheduler(cfg, logger)
		if schedErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", schedErr)
			os.Exit(1)
		}

		summary, runErr := sched.ExecuteRun(ctx)
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", runErr)
			os.Exit(1)
		}

		fmt.Printf("Wrote %s (%d chapters, %d unavailable)\n",
			summary.OutputPath(), summary.TotalChapters(), summary.FailedChapters())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "output format: epub, json or markdown")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory the artifact is written into")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "number of concurrent chapter downloads")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", -1, "retry attempts per failed request")
	rootCmd.PersistentFlags().DurationVar(&delay, "delay", 0, "delay between chapter requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// InitConfig resolves the effective config for a run.
// novelURL is mandatory and must be an absolute http(s) URL.
func InitConfig(novelURL string) config.Config {
	cfg, err := InitConfigWithError(novelURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError resolves the effective config for a run, returning any
// errors. Precedence, lowest to highest: built-in defaults, config file
// values, explicit CLI flags.
// This makes it easier to test error cases.
func InitConfigWithError(novelURL string) (config.Config, error) {
	if novelURL == "" {
		return config.Config{}, fmt.Errorf("%w: novelUrl cannot be empty", config.ErrInvalidConfig)
	}

	var configBuilder *config.Config
	if cfgFile != "" {
		fileCfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		configBuilder = fileCfg.WithNovelURL(novelURL)
	} else {
		configBuilder = config.WithDefault(novelURL)
	}

	// Override with CLI flag values where provided
	if format != "" {
		parsed, ok := storage.ParseFormat(format)
		if !ok {
			return config.Config{}, fmt.Errorf("%w: unknown format %q", config.ErrInvalidConfig, format)
		}
		configBuilder = configBuilder.WithFormat(parsed)
	}

	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if concurrency > 0 {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}

	// Retries may be explicitly zero; the flag default is -1 so that
	// "unset" and "no retries" stay distinguishable.
	if retries >= 0 {
		configBuilder = configBuilder.WithRetries(retries)
	}

	if delay > 0 {
		configBuilder = configBuilder.WithRequestDelay(delay)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if verbose {
		configBuilder = configBuilder.WithVerbose(verbose)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	format = ""
	outputDir = ""
	concurrency = 0
	retries = -1
	delay = 0
	timeout = 0
	userAgent = ""
	verbose = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetFormatForTest(f string) {
	format = f
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetRetriesForTest(r int) {
	retries = r
}

func SetDelayForTest(d time.Duration) {
	delay = d
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetVerboseForTest(v bool) {
	verbose = v
}
