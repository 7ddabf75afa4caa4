package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

//go:embed default.env
var defaultEnvFS embed.FS

const (
	KeyAPIKey         = "NEWSAPI_KEY"
	KeyResultsDir     = "RESULTS_DIR"
	KeyPageSize       = "PAGE_SIZE"
	KeyBaseURL        = "NEWSAPI_BASE_URL"
	KeyTemplateDir    = "TEMPLATE_DIR"
	KeyRequestTimeout = "REQUEST_TIMEOUT"

	// HomeEnv overrides the install home that RESULTS_DIR is joined to.
	HomeEnv = "NEWSFEEDS_HOME"

	// DataDirName holds the persisted JSON envelopes inside the install home.
	DataDirName = "Data"

	maxPageSize = 100
)

var (
	ErrNotConfigured     = errors.New("setup is not done")
	ErrMissingAPIKey     = errors.New("missing News API key")
	ErrDirectoryNotFound = errors.New("results directory not found")
)

type Config struct {
	APIKey string
	// ResultsDirName is the directory name as written in the file.
	ResultsDirName string
	ResultsDir     string
	DataDir        string
	PageSize       int
	BaseURL        string
	// TemplateDir is empty when the embedded templates are used.
	TemplateDir    string
	RequestTimeout time.Duration
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsfeeds", "newsfeeds.env")
}

// Home returns the install home that results directories live in.
func Home() string {
	if h := os.Getenv(HomeEnv); h != "" {
		return h
	}
	return filepath.Join(xdg.DataHome, "newsfeeds")
}

func loadDefaults() (map[string]string, error) {
	data, err := defaultEnvFS.ReadFile("default.env")
	if err != nil {
		return nil, fmt.Errorf("reading embedded defaults: %w", err)
	}
	env, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return env, nil
}

// Configure writes the configuration file at path and creates the results
// directory. An empty resultsDir selects the default directory name.
func Configure(path, apiKey, resultsDir string) (*Config, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	env, err := loadDefaults()
	if err != nil {
		return nil, err
	}
	// Keep optional settings from an earlier setup.
	if existing, err := godotenv.Read(path); err == nil {
		for k, v := range existing {
			env[k] = v
		}
	}
	env[KeyAPIKey] = apiKey
	if resultsDir != "" {
		env[KeyResultsDir] = resultsDir
	}

	cfg, err := parse(env)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if err := godotenv.Write(env, path); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration file at path over the embedded defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	env, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	file, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotConfigured, path)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	for k, v := range file {
		env[k] = v
	}

	cfg, err := parse(env)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}

// Validate checks that the directories the configuration names exist.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	info, err := os.Stat(c.ResultsDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, c.ResultsDir)
	}
	if c.TemplateDir != "" {
		info, err := os.Stat(c.TemplateDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("template dir %s not found", c.TemplateDir)
		}
	}
	return nil
}

func parse(env map[string]string) (*Config, error) {
	name := strings.TrimSpace(env[KeyResultsDir])
	if name == "" || filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%s must be a directory name, got %q", KeyResultsDir, name)
	}

	home := Home()
	cfg := &Config{
		APIKey:         strings.TrimSpace(env[KeyAPIKey]),
		ResultsDirName: name,
		ResultsDir:     filepath.Join(home, name),
		DataDir:        filepath.Join(home, DataDirName),
		BaseURL:        strings.TrimSpace(env[KeyBaseURL]),
		TemplateDir:    strings.TrimSpace(env[KeyTemplateDir]),
	}

	size, err := strconv.Atoi(strings.TrimSpace(env[KeyPageSize]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyPageSize, err)
	}
	if size < 1 || size > maxPageSize {
		return nil, fmt.Errorf("%s must be between 1 and %d, got %d", KeyPageSize, maxPageSize, size)
	}
	cfg.PageSize = size

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid url: %w", KeyBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: url scheme must be http or https, got %q", KeyBaseURL, u.Scheme)
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(env[KeyRequestTimeout]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyRequestTimeout, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyRequestTimeout, timeout)
	}
	cfg.RequestTimeout = timeout
	return cfg, nil
}
