// Package config loads a11y-lens settings from defaults, an optional YAML
// file, a .env file and the environment, in that order. Command-line flags
// are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/a11y-lens/internal/platform"
	"github.com/mj1618/a11y-lens/internal/session"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "a11y-lens.yaml"

type Config struct {
	Browser    BrowserConfig    `yaml:"browser"`
	Navigation NavigationConfig `yaml:"navigation"`
	AI         AIConfig         `yaml:"ai"`
	Artifact   ArtifactConfig   `yaml:"artifact"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

type BrowserConfig struct {
	RemoteURL string `yaml:"remoteUrl"`
	Bin       string `yaml:"bin"`
	Stealth   bool   `yaml:"stealth"`
	Headful   bool   `yaml:"headful"`
}

type NavigationConfig struct {
	MaxRetries int           `yaml:"maxRetries"`
	Timeout    time.Duration `yaml:"timeout"`
	Viewport   string        `yaml:"viewport"`
	UserAgent  string        `yaml:"userAgent"`
	Settle     time.Duration `yaml:"settle"`
	Backoff    time.Duration `yaml:"backoff"`
}

type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	Stream  bool   `yaml:"stream"`
	APIKey  string `yaml:"apiKey"`
}

// ArtifactConfig selects where annotated screenshots are uploaded. An
// empty Endpoint disables S3 uploads.
type ArtifactConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
	Dir       string `yaml:"dir"`
}

type ServerConfig struct {
	HTTPAddr  string        `yaml:"httpAddr"`
	CacheSize int           `yaml:"cacheSize"`
	CacheTTL  time.Duration `yaml:"cacheTTL"`
	// MaxConcurrent bounds simultaneous analyses (each owns a browser).
	MaxConcurrent int `yaml:"maxConcurrent"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{Stealth: true},
		Navigation: NavigationConfig{
			MaxRetries: session.DefaultMaxRetries,
			Timeout:    session.DefaultTimeout,
			Viewport:   platform.DefaultViewport.String(),
			UserAgent:  platform.DefaultUserAgent,
			Settle:     session.DefaultSettleDelay,
			Backoff:    session.DefaultRetryBackoff,
		},
		AI: AIConfig{Enabled: true},
		Artifact: ArtifactConfig{
			Region: "us-east-1",
			Bucket: "a11y-lens-artifacts",
			UseSSL: true,
		},
		Server: ServerConfig{
			HTTPAddr:      ":8080",
			CacheSize:     128,
			CacheTTL:      10 * time.Minute,
			MaxConcurrent: 4,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads configuration. path may be empty, in which case DefaultFile is
// used if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("A11Y_REMOTE_URL", &c.Browser.RemoteURL)
	str("A11Y_CHROME_BIN", &c.Browser.Bin)
	boolean("A11Y_STEALTH", &c.Browser.Stealth)

	integer("A11Y_MAX_RETRIES", &c.Navigation.MaxRetries)
	duration("A11Y_TIMEOUT", &c.Navigation.Timeout)
	str("A11Y_VIEWPORT", &c.Navigation.Viewport)
	str("A11Y_USER_AGENT", &c.Navigation.UserAgent)
	duration("A11Y_SETTLE", &c.Navigation.Settle)

	boolean("A11Y_AI_ENABLED", &c.AI.Enabled)
	str("A11Y_AI_MODEL", &c.AI.Model)
	boolean("A11Y_AI_STREAM", &c.AI.Stream)
	str("GEMINI_API_KEY", &c.AI.APIKey)

	str("A11Y_S3_ENDPOINT", &c.Artifact.Endpoint)
	str("A11Y_S3_REGION", &c.Artifact.Region)
	str("A11Y_S3_ACCESS_KEY", &c.Artifact.AccessKey)
	str("A11Y_S3_SECRET_KEY", &c.Artifact.SecretKey)
	str("A11Y_S3_BUCKET", &c.Artifact.Bucket)
	boolean("A11Y_S3_USE_SSL", &c.Artifact.UseSSL)
	str("A11Y_ARTIFACT_DIR", &c.Artifact.Dir)

	str("A11Y_HTTP_ADDR", &c.Server.HTTPAddr)
	integer("A11Y_CACHE_SIZE", &c.Server.CacheSize)
	duration("A11Y_CACHE_TTL", &c.Server.CacheTTL)
	integer("A11Y_MAX_CONCURRENT", &c.Server.MaxConcurrent)

	str("A11Y_LOG_LEVEL", &c.Log.Level)
	boolean("A11Y_LOG_JSON", &c.Log.JSON)

	return errors.Join(errs...)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Navigation.MaxRetries < 1 {
		return fmt.Errorf("navigation.maxRetries must be at least 1, got %d", c.Navigation.MaxRetries)
	}
	if c.Navigation.Timeout <= 0 {
		return fmt.Errorf("navigation.timeout must be positive, got %s", c.Navigation.Timeout)
	}
	if _, err := platform.ParseViewport(c.Navigation.Viewport); err != nil {
		return fmt.Errorf("navigation.viewport: %w", err)
	}
	if c.Server.CacheSize < 0 || c.Server.CacheTTL < 0 {
		return errors.New("server cache size and TTL must not be negative")
	}
	return nil
}

// LaunchOptions returns the browser backend settings.
func (c *Config) LaunchOptions() platform.LaunchOptions {
	return platform.LaunchOptions{
		RemoteURL: c.Browser.RemoteURL,
		Bin:       c.Browser.Bin,
		Stealth:   c.Browser.Stealth,
		Headful:   c.Browser.Headful,
	}
}

// SessionOptions returns navigation settings for session.Acquire. The
// viewport has already been validated.
func (c *Config) SessionOptions(logger *zap.Logger) session.Options {
	vp, _ := platform.ParseViewport(c.Navigation.Viewport)
	return session.Options{
		MaxRetries:   c.Navigation.MaxRetries,
		Timeout:      c.Navigation.Timeout,
		Viewport:     vp,
		UserAgent:    c.Navigation.UserAgent,
		SettleDelay:  c.Navigation.Settle,
		RetryBackoff: c.Navigation.Backoff,
		Logger:       logger,
	}
}
