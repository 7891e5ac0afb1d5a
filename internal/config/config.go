package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the gateway
type Config struct {
	Port string

	// Storage
	UseMemoryStore         bool
	DBDriver               string // postgres or sqlite
	DBHost                 string
	DBPort                 string
	DBUser                 string
	DBPass                 string
	DBName                 string
	DBPath                 string // sqlite file
	InstanceConnectionName string // Cloud SQL socket

	// Language model
	LLMBackend     string // openai or langchain
	OpenAIKey      string
	OpenAIModel    string
	EmbeddingModel string
	OracleTimeout  time.Duration

	// FAQ retrieval
	WeaviateHost   string
	WeaviateScheme string
	WeaviateClass  string
	RedisAddr      string
	AnswerCacheTTL time.Duration
	FAQThreshold   float64
	FAQTopK        int
	ChunkSize      int
	ChunkOverlap   int

	// Session context
	ContextTTL      time.Duration
	JanitorInterval time.Duration
	JanitorTrigger  int
	RescheduleDays  int

	// Twilio
	TwilioAccountSID      string
	TwilioAuthToken       string
	TwilioWhatsAppFrom    string
	SupportWhatsAppTo     string
	TwilioValidateWebhook bool
}

// Load reads .env files when present and then binds environment variables
func Load() (*Config, error) {
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			if err := godotenv.Load("environments/.env.development"); err != nil {
				log.Println("No .env file found - using environment variables")
			}
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port: v.GetString("PORT"),

		UseMemoryStore:         v.GetBool("USE_MEMORY_STORE"),
		DBDriver:               v.GetString("DB_DRIVER"),
		DBHost:                 v.GetString("DB_HOST"),
		DBPort:                 v.GetString("DB_PORT"),
		DBUser:                 v.GetString("DB_USER"),
		DBPass:                 v.GetString("DB_PASS"),
		DBName:                 v.GetString("DB_NAME"),
		DBPath:                 v.GetString("DB_PATH"),
		InstanceConnectionName: v.GetString("INSTANCE_CONNECTION_NAME"),

		LLMBackend:     v.GetString("LLM_BACKEND"),
		OpenAIKey:      v.GetString("OPENAI_API_KEY"),
		OpenAIModel:    v.GetString("OPENAI_MODEL"),
		EmbeddingModel: v.GetString("OPENAI_EMBEDDING_MODEL"),
		OracleTimeout:  v.GetDuration("ORACLE_TIMEOUT"),

		WeaviateHost:   v.GetString("WEAVIATE_HOST"),
		WeaviateScheme: v.GetString("WEAVIATE_SCHEME"),
		WeaviateClass:  v.GetString("WEAVIATE_CLASS"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		AnswerCacheTTL: v.GetDuration("ANSWER_CACHE_TTL"),
		FAQThreshold:   v.GetFloat64("FAQ_DISTANCE_THRESHOLD"),
		FAQTopK:        v.GetInt("FAQ_TOP_K"),
		ChunkSize:      v.GetInt("FAQ_CHUNK_SIZE"),
		ChunkOverlap:   v.GetInt("FAQ_CHUNK_OVERLAP"),

		ContextTTL:      v.GetDuration("CONTEXT_TTL"),
		JanitorInterval: v.GetDuration("JANITOR_INTERVAL"),
		JanitorTrigger:  v.GetInt("JANITOR_TRIGGER_SIZE"),
		RescheduleDays:  v.GetInt("RESCHEDULE_WINDOW_DAYS"),

		TwilioAccountSID:      v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:       v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom:    v.GetString("TWILIO_WHATSAPP_FROM"),
		SupportWhatsAppTo:     v.GetString("SUPPORT_WHATSAPP_TO"),
		TwilioValidateWebhook: v.GetBool("TWILIO_VALIDATE_WEBHOOK"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("USE_MEMORY_STORE", false)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "aira")
	v.SetDefault("DB_PATH", "aira.db")

	v.SetDefault("LLM_BACKEND", "openai")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")
	v.SetDefault("ORACLE_TIMEOUT", 20*time.Second)

	v.SetDefault("WEAVIATE_SCHEME", "http")
	v.SetDefault("WEAVIATE_CLASS", "FaqChunk")
	v.SetDefault("ANSWER_CACHE_TTL", 24*time.Hour)
	v.SetDefault("FAQ_DISTANCE_THRESHOLD", 0.8)
	v.SetDefault("FAQ_TOP_K", 5)
	v.SetDefault("FAQ_CHUNK_SIZE", 1000)
	v.SetDefault("FAQ_CHUNK_OVERLAP", 200)

	v.SetDefault("CONTEXT_TTL", 2*time.Hour)
	v.SetDefault("JANITOR_INTERVAL", 5*time.Minute)
	v.SetDefault("JANITOR_TRIGGER_SIZE", 100)
	v.SetDefault("RESCHEDULE_WINDOW_DAYS", 30)

	v.SetDefault("TWILIO_VALIDATE_WEBHOOK", true)
}

// Validate rejects settings the gateway cannot run with
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.LLMBackend {
	case "openai", "langchain":
	default:
		return fmt.Errorf("unsupported LLM_BACKEND %q", c.LLMBackend)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("FAQ_CHUNK_OVERLAP (%d) must be smaller than FAQ_CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.RescheduleDays <= 0 {
		return fmt.Errorf("RESCHEDULE_WINDOW_DAYS must be positive")
	}
	return nil
}

// TwilioConfigured reports whether outbound WhatsApp is possible
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppFrom != ""
}

// Environment names the deployment for logs
func (c *Config) Environment() string {
	if c.InstanceConnectionName != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}
