// Package config loads process configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every externally configurable knob. Zero values mean
// "not configured"; components pick their own defaults.
type Config struct {
	// Model backends
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	// Azure OpenAI. A non-empty endpoint switches the openai backend to
	// Azure; Deployment then replaces the model name.
	AzureOpenAIEndpoint   string
	AzureOpenAIAPIKey     string
	AzureOpenAIAPIVersion string
	AzureOpenAIDeployment string

	// Extraction
	DefaultResultCount int

	// Logging
	LogLevel  string
	LogFormat string

	// Knowledge base
	KnowledgeURLs        []string
	KnowledgePersistPath string

	// Email tool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Options configure loading.
type Options struct {
	// EnvFiles are loaded in order before reading the environment.
	// Missing files are skipped silently; a present .env never overrides
	// variables already set in the process environment.
	EnvFiles []string
}

// Load reads configuration from the environment. By default it first
// loads a ./.env file when one exists.
func Load(optFns ...func(o *Options)) (*Config, error) {
	opts := Options{
		EnvFiles: []string{".env"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	for _, file := range opts.EnvFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("load env file %q: %w", file, err)
		}
	}

	cfg := &Config{
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           getenvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:        os.Getenv("ANTHROPIC_MODEL"),
		AzureOpenAIEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIAPIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureOpenAIAPIVersion: getenvDefault("AZURE_OPENAI_API_VERSION", "2024-10-21"),
		AzureOpenAIDeployment: os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"),
		DefaultResultCount:    1,
		LogLevel:              getenvDefault("CREW_LOG_LEVEL", "info"),
		LogFormat:             getenvDefault("CREW_LOG_FORMAT", "text"),
		KnowledgePersistPath:  os.Getenv("CREW_KNOWLEDGE_PATH"),
		SMTPHost:              os.Getenv("SMTP_HOST"),
		SMTPPort:              587,
		SMTPUsername:          os.Getenv("SMTP_USERNAME"),
		SMTPPassword:          os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:              os.Getenv("SMTP_FROM"),
	}

	if v := os.Getenv("CREW_DEFAULT_RESULT_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid CREW_DEFAULT_RESULT_COUNT %q", v)
		}
		cfg.DefaultResultCount = n
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("invalid SMTP_PORT %q", v)
		}
		cfg.SMTPPort = n
	}

	if v := os.Getenv("CREW_KNOWLEDGE_URLS"); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.KnowledgeURLs = append(cfg.KnowledgeURLs, u)
			}
		}
	}

	if cfg.AzureOpenAIEndpoint != "" && cfg.AzureOpenAIDeployment == "" {
		return nil, fmt.Errorf("AZURE_OPENAI_ENDPOINT is set but AZURE_OPENAI_DEPLOYMENT_NAME is empty")
	}

	return cfg, nil
}

// UseAzureOpenAI reports whether Azure OpenAI is configured; when true the
// openai backend should be built with NewAzureModel and the deployment name.
func (c *Config) UseAzureOpenAI() bool {
	return c.AzureOpenAIEndpoint != ""
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
