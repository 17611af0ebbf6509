package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	GitHub   GitHubConfig   `yaml:"github"`
	AI       AIConfig       `yaml:"ai"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Minio    MinioConfig    `yaml:"minio"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second per client
	RateBurst       int           `yaml:"rate_burst"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"` // mysql, postgres, sqlite or memory
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Name           string `yaml:"name"`
	SSLMode        string `yaml:"sslmode"`
	Path           string `yaml:"path"` // sqlite file
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

type GitHubConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Token          string        `yaml:"token"`
	CommitPageSize int           `yaml:"commit_page_size"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

type AIConfig struct {
	Provider   string        `yaml:"provider"` // openai or heuristic; empty picks openai when a key is set
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	MaxCommits int           `yaml:"max_commits"`
	MaxTokens  int           `yaml:"max_tokens"`
	Timeout    time.Duration `yaml:"timeout"`
}

type AnalysisConfig struct {
	MaxRepositories int           `yaml:"max_repositories"`
	Concurrency     int           `yaml:"concurrency"`
	BatchTimeout    time.Duration `yaml:"batch_timeout"`
}

type MinioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	BucketName string `yaml:"bucketName"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"useSSL"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type AuthConfig struct {
	// APIKeys maps client name to key. Empty disables auth.
	APIKeys map[string]string `yaml:"api_keys"`
}

const (
	ProviderOpenAI    = "openai"
	ProviderHeuristic = "heuristic"

	DriverMemory = "memory"
)

// Default returns a config that runs without any external service.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load baca file config.yaml, isi default lalu override secret dari env.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	setInt(&c.Server.Port, 8080)
	setDuration(&c.Server.ReadTimeout, 15*time.Second)
	// an analysis run may take the whole batch timeout
	setDuration(&c.Server.WriteTimeout, 3*time.Minute)
	setDuration(&c.Server.IdleTimeout, 60*time.Second)
	setDuration(&c.Server.ShutdownTimeout, 10*time.Second)
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 5
	}
	setInt(&c.Server.RateBurst, 10)

	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	setString(&c.Database.Host, "127.0.0.1")
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "postgres", "postgresql":
			c.Database.Port = 5432
		default:
			c.Database.Port = 3306
		}
	}
	setString(&c.Database.Name, "giterra")
	setString(&c.Database.SSLMode, "disable")
	setString(&c.Database.Path, "giterra.db")

	setString(&c.GitHub.BaseURL, "https://api.github.com")
	setInt(&c.GitHub.CommitPageSize, 50)
	if c.GitHub.RateLimit == 0 {
		c.GitHub.RateLimit = 10
	}
	setInt(&c.GitHub.RateBurst, 10)
	setDuration(&c.GitHub.Timeout, 15*time.Second)
	if c.GitHub.MaxRetries == 0 {
		c.GitHub.MaxRetries = 2
	}

	c.AI.Provider = strings.ToLower(c.AI.Provider)
	setString(&c.AI.Model, "gpt-4o-mini")
	setInt(&c.AI.MaxCommits, 20)
	setInt(&c.AI.MaxTokens, 1024)
	setDuration(&c.AI.Timeout, 60*time.Second)

	setInt(&c.Analysis.MaxRepositories, 20)
	setInt(&c.Analysis.Concurrency, 8)
	setDuration(&c.Analysis.BatchTimeout, 2*time.Minute)

	setString(&c.Minio.BucketName, "giterra-reports")
	setString(&c.Minio.Region, "us-east-1")

	setString(&c.Log.Level, "info")
	setString(&c.Log.Format, "text")
}

// applyEnv overrides secrets from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("GITHUB_TOKEN"); ok && v != "" {
		c.GitHub.Token = v
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.AI.APIKey = v
	}
	if v, ok := lookup("DATABASE_PASSWORD"); ok && v != "" {
		c.Database.Password = v
	}
	if v, ok := lookup("MINIO_SECRET_KEY"); ok && v != "" {
		c.Minio.SecretKey = v
	}
}

// Validate rejects unknown drivers and providers and non-positive limits.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres", "postgresql", "sqlite", DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	switch c.AI.Provider {
	case "", ProviderHeuristic:
	case ProviderOpenAI:
		if c.AI.APIKey == "" {
			errs = append(errs, errors.New("ai.api_key: required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unsupported %q", c.AI.Provider))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}

	positive := map[string]int{
		"server.port":               c.Server.Port,
		"server.rate_burst":         c.Server.RateBurst,
		"github.commit_page_size":   c.GitHub.CommitPageSize,
		"github.rate_burst":         c.GitHub.RateBurst,
		"ai.max_commits":            c.AI.MaxCommits,
		"ai.max_tokens":             c.AI.MaxTokens,
		"analysis.max_repositories": c.Analysis.MaxRepositories,
		"analysis.concurrency":      c.Analysis.Concurrency,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %d", name, v))
		}
	}
	if c.Server.RateLimit <= 0 || c.GitHub.RateLimit <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	if c.Analysis.BatchTimeout <= 0 {
		errs = append(errs, errors.New("analysis.batch_timeout: must be positive"))
	}
	if c.GitHub.CommitPageSize > 100 {
		errs = append(errs, fmt.Errorf("github.commit_page_size: at most 100, got %d", c.GitHub.CommitPageSize))
	}
	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("minio.endpoint: required when minio is enabled"))
	}
	errs = append(errs, c.validateAPIKeys()...)
	return errors.Join(errs...)
}

// validateAPIKeys requires one distinct, non-empty key per client; the key
// alone identifies the client.
func (c *Config) validateAPIKeys() []error {
	names := make([]string, 0, len(c.Auth.APIKeys))
	for name := range c.Auth.APIKeys {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	owners := make(map[string]string, len(names))
	for _, name := range names {
		key := c.Auth.APIKeys[name]
		if key == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys.%s: empty key", name))
			continue
		}
		if prev, ok := owners[key]; ok {
			errs = append(errs, fmt.Errorf("auth.api_keys: %s and %s share a key", prev, name))
			continue
		}
		owners[key] = name
	}
	return errs
}

// AIProvider resolves the effective analysis provider.
func (c *Config) AIProvider() string {
	if c.AI.Provider != "" {
		return c.AI.Provider
	}
	if c.AI.APIKey != "" {
		return ProviderOpenAI
	}
	return ProviderHeuristic
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN PostgreSQL (lib/pq URL form)
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

func setString(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

func setInt(p *int, def int) {
	if *p == 0 {
		*p = def
	}
}

func setDuration(p *time.Duration, def time.Duration) {
	if *p == 0 {
		*p = def
	}
}
