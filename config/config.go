package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	PNCP     PNCPConfig
	LLM      LLMConfig
	MCP      MCPConfig
	Risk     RiskConfig
	Monitor  MonitorConfig
	N8N      N8NConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// DatabaseConfig points at the Supabase Postgres instance. An empty DSN
// disables the notice store and watch routes.
type DatabaseConfig struct {
	DSN      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type PNCPConfig struct {
	BaseURL   string
	SearchURL string
	Timeout   time.Duration
	RPS       float64
	Burst     int
}

type LLMConfig struct {
	DefaultProvider string
	SystemPrompt    string
	Timeout         time.Duration
	Groq            ProviderConfig
	Lovable         ProviderConfig
}

type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type MCPConfig struct {
	// Source is "pncp" or "mock".
	Source string
}

type RiskConfig struct {
	RulesFile string
}

type MonitorConfig struct {
	Enabled  bool
	Schedule string
}

type N8NConfig struct {
	BaseURL string
	APIKey  string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

const defaultSystemPrompt = "Você é um assistente especialista em licitações públicas brasileiras (Lei 14.133/2021). " +
	"Responda em português, de forma objetiva, citando riscos e próximos passos quando relevante."

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		PNCP: PNCPConfig{
			BaseURL:   strings.TrimRight(getEnv("PNCP_BASE_URL", "https://pncp.gov.br/api/consulta"), "/"),
			SearchURL: strings.TrimRight(getEnv("PNCP_SEARCH_URL", "https://pncp.gov.br/api/search"), "/"),
			Timeout:   getEnvAsDuration("PNCP_TIMEOUT", 30*time.Second),
			RPS:       getEnvAsFloat("PNCP_RPS", 5),
			Burst:     getEnvAsInt("PNCP_BURST", 10),
		},
		LLM: LLMConfig{
			DefaultProvider: getEnv("LLM_DEFAULT_PROVIDER", "groq"),
			SystemPrompt:    getEnv("LLM_SYSTEM_PROMPT", defaultSystemPrompt),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			Groq: ProviderConfig{
				APIKey:  getEnv("GROQ_API_KEY", ""),
				BaseURL: strings.TrimRight(getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"), "/"),
				Model:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			},
			Lovable: ProviderConfig{
				APIKey:  getEnv("LOVABLE_API_KEY", ""),
				BaseURL: strings.TrimRight(getEnv("LOVABLE_BASE_URL", "https://ai.gateway.lovable.dev/v1"), "/"),
				Model:   getEnv("LOVABLE_MODEL", "google/gemini-2.5-flash"),
			},
		},
		MCP: MCPConfig{
			Source: getEnv("MCP_SOURCE", "pncp"),
		},
		Risk: RiskConfig{
			RulesFile: getEnv("RISK_RULES_FILE", ""),
		},
		Monitor: MonitorConfig{
			Enabled:  getEnvAsBool("MONITOR_ENABLED", false),
			Schedule: getEnv("MONITOR_SCHEDULE", "0 0 */6 * * *"),
		},
		N8N: N8NConfig{
			BaseURL: strings.TrimRight(getEnv("N8N_BASE_URL", "http://localhost:5678"), "/"),
			APIKey:  getEnv("N8N_API_KEY", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.PNCP.BaseURL == "" {
		return fmt.Errorf("PNCP_BASE_URL is required")
	}

	switch c.MCP.Source {
	case "pncp", "mock":
	default:
		return fmt.Errorf("MCP_SOURCE must be pncp or mock, got %q", c.MCP.Source)
	}

	switch c.LLM.DefaultProvider {
	case "groq", "lovable":
	default:
		return fmt.Errorf("LLM_DEFAULT_PROVIDER must be groq or lovable, got %q", c.LLM.DefaultProvider)
	}

	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
