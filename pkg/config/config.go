package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "opsagent.yaml"

// ErrNoProvider is returned when no LLM provider is enabled or detectable.
var ErrNoProvider = errors.New("no enabled LLM provider found")

// ProviderOrder is the detection order used when llm.provider is not set.
var ProviderOrder = []string{"groq", "gemini", "ollama", "openai", "openrouter"}

// providerEnv maps a provider to the environment variable that enables it.
// For ollama the variable carries the server URL rather than a key.
var providerEnv = map[string]string{
	"groq":       "GROQ_API_KEY",
	"gemini":     "GOOGLE_API_KEY",
	"ollama":     "OLLAMA_HOST",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

type Config struct {
	App       AppConfig                 `yaml:"app"`
	LLM       LLMConfig                 `yaml:"llm"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Executor  ExecutorConfig            `yaml:"executor"`
	Tools     ToolsConfig               `yaml:"tools"`
	Policy    PolicyConfig              `yaml:"policy"`
	Server    ServerConfig              `yaml:"server"`
	Gateways  map[string]GatewayConfig  `yaml:"gateways"`
	Logging   LoggingConfig             `yaml:"logging"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	// PromptsDir optionally overrides the embedded planner/verifier prompts.
	PromptsDir string `yaml:"prompts_dir"`
}

type LLMConfig struct {
	// Provider pins a provider by name; empty means auto-detect.
	Provider    string        `yaml:"provider"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type ExecutorConfig struct {
	Concurrency int           `yaml:"concurrency"`
	StepTimeout time.Duration `yaml:"step_timeout"`
}

type ToolsConfig struct {
	Disabled []string      `yaml:"disabled"`
	GitHub   GitHubConfig  `yaml:"github"`
	Weather  WeatherConfig `yaml:"weather"`
	Web      WebConfig     `yaml:"web"`
}

type GitHubConfig struct {
	Token             string        `yaml:"token"`
	BaseURL           string        `yaml:"base_url,omitempty"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

type WeatherConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type WebConfig struct {
	UserAgent  string        `yaml:"user_agent"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PolicyConfig lists steps that are refused before their capability runs.
type PolicyConfig struct {
	DeniedActions   []string       `yaml:"denied_actions"`
	DeniedArguments []ArgumentRule `yaml:"denied_arguments"`
	// AllowPrivateHosts lets web_page fetch loopback and private network URLs.
	AllowPrivateHosts bool `yaml:"allow_private_hosts"`
}

// ArgumentRule denies steps whose string parameters match Pattern. An empty
// Action applies to every action.
type ArgumentRule struct {
	Action  string `yaml:"action"`
	Pattern string `yaml:"pattern"`
}

type ServerConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GatewayConfig struct {
	Token   string `yaml:"token"`
	Enabled bool   `yaml:"enabled"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// LLMLogPath is the JSONL transcript of completion calls; empty disables it.
	LLMLogPath string `yaml:"llm_log_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "opsagent"},
		LLM: LLMConfig{
			Temperature: 0.3,
			Timeout:     60 * time.Second,
		},
		Providers: map[string]ProviderConfig{
			"groq":       {Model: "llama-3.3-70b-versatile", BaseURL: "https://api.groq.com/openai/v1"},
			"gemini":     {Model: "gemini-1.5-flash", BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/"},
			"ollama":     {Model: "llama3.2", BaseURL: "http://localhost:11434"},
			"openai":     {Model: "gpt-4o-mini"},
			"openrouter": {Model: "openai/gpt-4o-mini", BaseURL: "https://openrouter.ai/api/v1"},
		},
		Executor: ExecutorConfig{
			Concurrency: 4,
			StepTimeout: 20 * time.Second,
		},
		Tools: ToolsConfig{
			GitHub: GitHubConfig{
				RequestsPerMinute: 10,
				Timeout:           10 * time.Second,
			},
			Weather: WeatherConfig{
				BaseURL: "https://api.openweathermap.org/data/2.5",
				Timeout: 10 * time.Second,
			},
			Web: WebConfig{
				UserAgent:  "Mozilla/5.0 (compatible; opsagent/1.0)",
				MaxResults: 5,
				Timeout:    15 * time.Second,
			},
		},
		Server: ServerConfig{
			Address:         ":8000",
			ShutdownTimeout: 15 * time.Second,
		},
		Gateways: map[string]GatewayConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path,
// a .env file in the working directory and the process environment, in that
// order of increasing priority. A missing file at DefaultPath is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// lookupEnv returns the value of key, treating the "your_<key>" placeholder
// shipped in example .env files as unset.
func lookupEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" || v == "your_"+strings.ToLower(key) {
		return ""
	}
	return v
}

func (c *Config) applyEnv() {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	for name, env := range providerEnv {
		v := lookupEnv(env)
		if v == "" {
			continue
		}
		p := c.Providers[name]
		if name == "ollama" {
			p.BaseURL = v
		} else {
			p.APIKey = v
		}
		p.Enabled = true
		c.Providers[name] = p
	}

	if v := lookupEnv("OPENWEATHER_API_KEY"); v != "" {
		c.Tools.Weather.APIKey = v
	}
	if v := lookupEnv("GITHUB_TOKEN"); v != "" {
		c.Tools.GitHub.Token = v
	}
	if v := lookupEnv("TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Gateways == nil {
			c.Gateways = map[string]GatewayConfig{}
		}
		c.Gateways["telegram"] = GatewayConfig{Token: v, Enabled: true}
	}
	if v := lookupEnv("OPSAGENT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks field ranges that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Executor.Concurrency < 1 {
		return fmt.Errorf("executor.concurrency must be at least 1, got %d", c.Executor.Concurrency)
	}
	if c.Executor.StepTimeout <= 0 {
		return fmt.Errorf("executor.step_timeout must be positive")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.LLM.Provider != "" {
		if _, ok := providerEnv[c.LLM.Provider]; !ok {
			return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
		}
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// GetDefaultProvider returns the pinned provider, or the first enabled one in
// ProviderOrder.
func (c *Config) GetDefaultProvider() (string, ProviderConfig, error) {
	if c.LLM.Provider != "" {
		p, ok := c.Providers[c.LLM.Provider]
		if !ok {
			return "", ProviderConfig{}, fmt.Errorf("provider %s is not configured", c.LLM.Provider)
		}
		return c.LLM.Provider, p, nil
	}
	for _, name := range ProviderOrder {
		if p, ok := c.Providers[name]; ok && p.Enabled {
			return name, p, nil
		}
	}
	return "", ProviderConfig{}, ErrNoProvider
}

// ProviderEnv returns the environment variable that enables the provider.
func ProviderEnv(name string) string {
	return providerEnv[name]
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled && tg.Token != "" {
		return tg, true
	}
	return GatewayConfig{}, false
}
