package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	WebhookURL       string `yaml:"webhook_url"`
	WebhookSecret    string `yaml:"webhook_secret"`

	YCFolderID   string `yaml:"yc_folder_id"`
	YCAPIKey     string `yaml:"yc_api_key"`
	YCOAuthToken string `yaml:"yc_oauth_token"`
	VisionAPIKey string `yaml:"vision_api_key"`

	// LLMProvider selects the completion backend: yandexgpt | openai | gemini.
	LLMProvider   string `yaml:"llm_provider"`
	ModelURI      string `yaml:"model_uri"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`

	S3Endpoint        string `yaml:"s3_endpoint"`
	S3Region          string `yaml:"s3_region"`
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`
	PromptsBucket     string `yaml:"prompts_bucket"`
	PromptsKey        string `yaml:"prompts_key"`
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getEnv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func defaults() *Config {
	return &Config{
		Port:        "8080",
		LogLevel:    "info",
		LLMProvider: "yandexgpt",
		OpenAIModel: "gpt-4o-mini",
		GeminiModel: "gemini-2.5-flash",
		S3Endpoint:  "https://storage.yandexcloud.net",
		S3Region:    "ru-central1",
		PromptsKey:  "prompts.json",
	}
}

// Load builds the config from defaults, an optional YAML file named by
// CONFIG_FILE, and the environment, in that order of precedence (env wins).
// No value is required here: a missing credential only disables the
// component that needs it.
func Load() (*Config, error) {
	cfg := defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if cfg.ModelURI == "" && cfg.YCFolderID != "" {
		cfg.ModelURI = fmt.Sprintf("gpt://%s/yandexgpt-lite", cfg.YCFolderID)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.WebhookURL = getEnv("WEBHOOK_URL", c.WebhookURL)
	c.WebhookSecret = getEnv("WEBHOOK_SECRET", c.WebhookSecret)

	if v := firstEnv("YC_FOLDER_ID", "FOLDER_ID"); v != "" {
		c.YCFolderID = v
	}
	c.YCAPIKey = getEnv("YC_API_KEY", c.YCAPIKey)
	c.YCOAuthToken = getEnv("YC_OAUTH_TOKEN", c.YCOAuthToken)
	c.VisionAPIKey = getEnv("VISION_API_KEY", c.VisionAPIKey)

	c.LLMProvider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLMProvider))
	c.ModelURI = getEnv("MODEL_URI", c.ModelURI)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = getEnv("OPENAI_MODEL", c.OpenAIModel)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)

	c.S3Endpoint = getEnv("S3_ENDPOINT", c.S3Endpoint)
	c.S3Region = getEnv("S3_REGION", c.S3Region)
	c.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", c.S3AccessKeyID)
	c.S3SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", c.S3SecretAccessKey)
	c.PromptsBucket = getEnv("PROMPTS_BUCKET", c.PromptsBucket)
	c.PromptsKey = getEnv("PROMPTS_KEY", c.PromptsKey)
}
