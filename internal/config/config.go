package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL           = "https://flamescans.org"
	DefaultRequestsPerSecond = 3
	DefaultTimeoutSeconds    = 8
	DefaultAttempts          = 5
	DefaultBindAddr          = ":8080"
)

type Config struct {
	BaseURL string `yaml:"base_url"`

	UserAgent  string `yaml:"user_agent"`
	Cookie     string `yaml:"cookie"`
	CookieFile string `yaml:"cookie_file"`

	RequestsPerSecond   float64 `yaml:"requests_per_second"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
	Attempts            int     `yaml:"attempts"`
	CloudflareTransport bool    `yaml:"cloudflare_transport"`
	TraversalPath       string  `yaml:"traversal_path"`

	Debug    bool   `yaml:"debug"`
	BindAddr string `yaml:"bind_addr"`
}

type Options struct {
	IgnoreConfig        bool
	Debug               bool
	BaseURL             string
	UserAgent           string
	Cookie              string
	CookieFile          string
	RequestsPerSecond   float64
	TimeoutSeconds      int
	Attempts            int
	CloudflareTransport bool
	TraversalPath       string
	BindAddr            string
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:             DefaultBaseURL,
		UserAgent:           "",
		Cookie:              "",
		CookieFile:          "",
		RequestsPerSecond:   DefaultRequestsPerSecond,
		TimeoutSeconds:      DefaultTimeoutSeconds,
		Attempts:            DefaultAttempts,
		CloudflareTransport: false,
		TraversalPath:       "",
		Debug:               false,
		BindAddr:            DefaultBindAddr,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return writeAtomic(path, data)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadMerged resolves the effective config: defaults, then the active
// profile, then FLAMED_* environment variables, then command line flags.
// The second return value describes where the profile came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		if err := applyEnv(cfg); err != nil {
			return nil, "", err
		}
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || (err == nil && activePath == "") {
		cfg := DefaultConfig()
		if err := applyEnv(cfg); err != nil {
			return nil, "", err
		}
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `flamed config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, "", err
	}
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

// applyEnv overlays FLAMED_* variables. A .env file in the working
// directory is loaded into the environment at startup.
func applyEnv(c *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	str("FLAMED_BASE_URL", &c.BaseURL)
	str("FLAMED_USER_AGENT", &c.UserAgent)
	str("FLAMED_COOKIE", &c.Cookie)
	str("FLAMED_COOKIE_FILE", &c.CookieFile)
	str("FLAMED_TRAVERSAL_PATH", &c.TraversalPath)
	str("FLAMED_BIND_ADDR", &c.BindAddr)

	if v := os.Getenv("FLAMED_REQUESTS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FLAMED_REQUESTS_PER_SECOND: %w", err)
		}
		c.RequestsPerSecond = f
	}

	ints := map[string]*int{
		"FLAMED_TIMEOUT_SECONDS": &c.TimeoutSeconds,
		"FLAMED_ATTEMPTS":        &c.Attempts,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"FLAMED_DEBUG":                &c.Debug,
		"FLAMED_CLOUDFLARE_TRANSPORT": &c.CloudflareTransport,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	return nil
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.RequestsPerSecond != 0 {
		c.RequestsPerSecond = o.RequestsPerSecond
	}
	if o.TimeoutSeconds != 0 {
		c.TimeoutSeconds = o.TimeoutSeconds
	}
	if o.Attempts != 0 {
		c.Attempts = o.Attempts
	}
	if o.CloudflareTransport {
		c.CloudflareTransport = true
	}
	if o.TraversalPath != "" {
		c.TraversalPath = o.TraversalPath
	}
	if o.BindAddr != "" {
		c.BindAddr = o.BindAddr
	}
}

func normalizeDefaults(c *Config) {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.BindAddr == "" {
		c.BindAddr = DefaultBindAddr
	}
	c.TraversalPath = strings.Trim(c.TraversalPath, "/")
}

func (c *Config) Print() {
	fmt.Printf(" -base_url: %s\n", c.BaseURL)
	fmt.Printf(" -requests_per_second: %g\n", c.RequestsPerSecond)
	fmt.Printf(" -timeout_seconds: %d\n", c.TimeoutSeconds)
	fmt.Printf(" -attempts: %d\n", c.Attempts)
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.Cookie != "" {
		fmt.Printf(" -cookie: (set)\n")
	}
	if c.CloudflareTransport {
		fmt.Printf(" -cloudflare_transport: %t\n", c.CloudflareTransport)
	}
	if c.TraversalPath != "" {
		fmt.Printf(" -traversal_path: %s\n", c.TraversalPath)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	fmt.Printf(" -bind_addr: %s\n", c.BindAddr)
}
