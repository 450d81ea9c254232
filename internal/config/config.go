package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/novelpack/novelpack/internal/storage"
)

type Config struct {
	//===============
	// Run scope
	//===============
	// Landing page of the novel to package.
	novelURL string
	// Serialization format of the run artifact.
	format storage.Format

	//===============
	// Concurrency
	//===============
	// Maximum number of chapter download goroutines in flight at once;
	// it does not control OS threads or CPU parallelism.
	concurrency int
	// Number of retries after the first failed attempt of a chapter fetch.
	retries int
	// Fixed waiting time between retry attempts.
	retryDelay time.Duration
	// Waiting time each download task observes after its request.
	requestDelay time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request.
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string

	//===============
	// Output
	//===============
	// Directory in which to store the packaged book.
	outputDir string
	// Verbose switches the logger to debug output.
	verbose bool
}

type configDTO struct {
	NovelURL     string        `json:"novelUrl"`
	Format       string        `json:"format,omitempty"`
	Concurrency  int           `json:"concurrency,omitempty"`
	Retries      *int          `json:"retries,omitempty"`
	RetryDelay   time.Duration `json:"retryDelay,omitempty"`
	RequestDelay time.Duration `json:"requestDelay,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	OutputDir    string        `json:"outputDir,omitempty"`
	Verbose      bool          `json:"verbose,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	// Start with default config
	cfg := *WithDefault(dto.NovelURL)

	if dto.Format != "" {
		format, ok := storage.ParseFormat(dto.Format)
		if !ok {
			return Config{}, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, dto.Format)
		}
		cfg.format = format
	}

	// For other fields, only override if a non-zero value is provided
	if dto.Concurrency != 0 {
		cfg.concurrency = dto.Concurrency
	}
	// Retries can be explicitly 0, which an int zero value cannot
	// distinguish from an absent key; the pointer keeps them apart.
	if dto.Retries != nil {
		cfg.retries = *dto.Retries
	}
	if dto.RetryDelay != 0 {
		cfg.retryDelay = dto.RetryDelay
	}
	if dto.RequestDelay != 0 {
		cfg.requestDelay = dto.RequestDelay
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	cfg.verbose = dto.Verbose

	// A file may omit novelUrl when the caller supplies it afterwards;
	// validation then happens on the caller's final Build.
	if dto.NovelURL == "" {
		return cfg, nil
	}
	return cfg.Build()
}

// WithConfigFile loads config values from a JSON file, filling anything the
// file omits with defaults. A file without novelUrl is returned unvalidated
// so the caller can set the URL and Build.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with the provided novel URL and
// default values for all other fields. novelURL is mandatory and must
// not be empty - an error will be returned by Build if it is.
func WithDefault(novelURL string) *Config {
	defaultConfig := Config{
		novelURL:     novelURL,
		format:       storage.FormatEPUB,
		concurrency:  5,
		retries:      3,
		retryDelay:   2 * time.Second,
		requestDelay: time.Second,
		timeout:      30 * time.Second,
		userAgent:    "novelpack/1.0 (+https://github.com/novelpack/novelpack)",
		outputDir:    "results",
		verbose:      false,
	}
	return &defaultConfig
}

func (c *Config) WithNovelURL(novelURL string) *Config {
	c.novelURL = novelURL
	return c
}

func (c *Config) WithFormat(format storage.Format) *Config {
	c.format = format
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithRetries(retries int) *Config {
	c.retries = retries
	return c
}

func (c *Config) WithRetryDelay(delay time.Duration) *Config {
	c.retryDelay = delay
	return c
}

func (c *Config) WithRequestDelay(delay time.Duration) *Config {
	c.requestDelay = delay
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithVerbose(verbose bool) *Config {
	c.verbose = verbose
	return c
}

func (c *Config) Build() (Config, error) {
	if c.novelURL == "" {
		return Config{}, fmt.Errorf("%w: novelUrl cannot be empty", ErrInvalidConfig)
	}
	if _, ok := storage.ParseFormat(string(c.format)); !ok {
		return Config{}, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.format)
	}
	if c.concurrency < 1 {
		return Config{}, fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.retries < 0 {
		return Config{}, fmt.Errorf("%w: retries cannot be negative", ErrInvalidConfig)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}

	return *c, nil
}

func (c *Config) NovelURL() string {
	return c.novelURL
}

func (c *Config) Format() storage.Format {
	return c.format
}

func (c *Config) Concurrency() int {
	return c.concurrency
}

func (c *Config) Retries() int {
	return c.retries
}

func (c *Config) RetryDelay() time.Duration {
	return c.retryDelay
}

func (c *Config) RequestDelay() time.Duration {
	return c.requestDelay
}

func (c *Config) Timeout() time.Duration {
	return c.timeout
}

func (c *Config) UserAgent() string {
	return c.userAgent
}

func (c *Config) OutputDir() string {
	return c.outputDir
}

func (c *Config) Verbose() bool {
	return c.verbose
}
