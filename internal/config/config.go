package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr     string        `env:"SERVER_ADDR" envDefault:":7860"`
	Version        string        `env:"APP_VERSION" envDefault:"1.0.0"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`

	// Model connector configurations
	EmbeddingConnectorCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	RerankerConnectorCfg  RerankerConnectorConfig  `envPrefix:"RERANKER_"`
	OCRConnectorCfg       OCRConnectorConfig       `envPrefix:"OCR_"`
	LLMConnectorCfg       LLMConnectorConfig       `envPrefix:"LLM_"`

	PipelineCfg PipelineConfig `envPrefix:"PIPELINE_"`
	StoreCfg    StoreConfig    `envPrefix:"STORE_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// unioffice metered key, enables docx export
	OfficeLicenseKey string `env:"UNIOFFICE_LICENSE_KEY"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// User facing messages (loaded from YAML file)
	MessagesFile string `env:"MESSAGES_FILE" envDefault:"internal/config/messages.yaml"`
	Messages     Messages

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	Enabled            bool          `env:"ENABLED" envDefault:"false"`
	BotToken           string        `env:"BOT_TOKEN"`
	UpdateTimeout      int           `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int           `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
	HandlerTimeout     time.Duration `env:"HANDLER_TIMEOUT" envDefault:"120s"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	MaxFileSize        int64         `env:"MAX_FILE_SIZE" envDefault:"20971520"` // 20 MiB, Bot API download limit
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	EmbedEndpoint string `env:"EMBED_ENDPOINT" envDefault:"/embed"`
	QueryPrefix   string `env:"QUERY_PREFIX"`
	Normalize     bool   `env:"NORMALIZE" envDefault:"true"`
}

type RerankerConnectorConfig struct {
	HTTPClientConfig
	RerankEndpoint string               `env:"RERANK_ENDPOINT" envDefault:"/rerank"`
	HealthEndpoint string               `env:"HEALTH_ENDPOINT" envDefault:"/health"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type OCRConnectorConfig struct {
	HTTPClientConfig
	Enabled        bool                 `env:"ENABLED" envDefault:"true"`
	OCREndpoint    string               `env:"OCR_ENDPOINT" envDefault:"/ocr"`
	HealthEndpoint string               `env:"HEALTH_ENDPOINT" envDefault:"/health"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	Model           string `env:"MODEL" envDefault:"gemini-2.0-flash"`
	APIKey          string `env:"API_KEY"`
	MaxOutputTokens int    `env:"MAX_OUTPUT_TOKENS" envDefault:"0"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"30s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// PipelineConfig holds the ingestion and query pipeline parameters
type PipelineConfig struct {
	ChunkSize         int     `env:"CHUNK_SIZE" envDefault:"300"`    // words
	ChunkOverlap      int     `env:"CHUNK_OVERLAP" envDefault:"30"`  // words
	EmbedBatchSize    int     `env:"EMBED_BATCH_SIZE" envDefault:"8"`
	RetrieveTopK      int     `env:"RETRIEVE_TOP_K" envDefault:"3"`
	RerankCandidates  int     `env:"RERANK_CANDIDATES" envDefault:"5"`
	RerankTopK        int     `env:"RERANK_TOP_K" envDefault:"3"`
	OCRMinConfidence  float64 `env:"OCR_MIN_CONFIDENCE" envDefault:"0.3"`
	PDFMinNativeChars int     `env:"PDF_MIN_NATIVE_CHARS" envDefault:"50"`
	PDFRenderDPI      float64 `env:"PDF_RENDER_DPI" envDefault:"200"`
	SnippetLength     int     `env:"SNIPPET_LENGTH" envDefault:"200"`
}

// StoreConfig holds the in-memory document store settings.
// SessionTTL of zero keeps sessions until they are cleared.
type StoreConfig struct {
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"0s"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"52428800"`   // 50 MiB
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"209715200"` // 200 MiB
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"64"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB kept in memory
}

// Messages are the user facing texts of the query and upload flows
type Messages struct {
	EmptyQuestion string `yaml:"empty_question"`
	EmbedFailed   string `yaml:"embed_failed"`
	NoDocuments   string `yaml:"no_documents"`
	QueryError    string `yaml:"query_error"`
	NoResponse    string `yaml:"no_response"`
	UploadHint    string `yaml:"upload_hint"`
}

// DefaultMessages returns the built-in message set
func DefaultMessages() Messages {
	return Messages{
		EmptyQuestion: "Please provide a non-empty question.",
		EmbedFailed:   "Failed to process your question.",
		NoDocuments:   "No documents found for this session. Please upload a file first.",
		QueryError:    "Sorry, I encountered an error processing your request.",
		NoResponse:    "No response generated",
		UploadHint:    "Use this session_id for queries: %s",
	}
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Variables may be set externally, a missing file is fine.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := loadMessages(cfg); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout))
	}

	p := cfg.PipelineCfg
	if p.ChunkSize < 1 {
		errs = append(errs, fmt.Sprintf("PIPELINE_CHUNK_SIZE must be positive, got %d", p.ChunkSize))
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		errs = append(errs, fmt.Sprintf("PIPELINE_CHUNK_OVERLAP must be between 0 and CHUNK_SIZE-1, got %d", p.ChunkOverlap))
	}
	if p.EmbedBatchSize < 1 || p.EmbedBatchSize > 256 {
		errs = append(errs, fmt.Sprintf("PIPELINE_EMBED_BATCH_SIZE must be between 1 and 256, got %d", p.EmbedBatchSize))
	}
	if p.RetrieveTopK < 1 {
		errs = append(errs, fmt.Sprintf("PIPELINE_RETRIEVE_TOP_K must be positive, got %d", p.RetrieveTopK))
	}
	if p.RerankCandidates < 1 || p.RerankTopK < 1 {
		errs = append(errs, fmt.Sprintf("PIPELINE_RERANK_CANDIDATES and PIPELINE_RERANK_TOP_K must be positive, got %d and %d", p.RerankCandidates, p.RerankTopK))
	}
	if p.OCRMinConfidence < 0 || p.OCRMinConfidence > 1 {
		errs = append(errs, fmt.Sprintf("PIPELINE_OCR_MIN_CONFIDENCE must be between 0 and 1, got %v", p.OCRMinConfidence))
	}
	if p.PDFRenderDPI < 36 || p.PDFRenderDPI > 600 {
		errs = append(errs, fmt.Sprintf("PIPELINE_PDF_RENDER_DPI must be between 36 and 600, got %v", p.PDFRenderDPI))
	}
	if p.SnippetLength < 1 {
		errs = append(errs, fmt.Sprintf("PIPELINE_SNIPPET_LENGTH must be positive, got %d", p.SnippetLength))
	}

	if cfg.StoreCfg.SessionTTL < 0 {
		errs = append(errs, fmt.Sprintf("STORE_SESSION_TTL must not be negative, got %s", cfg.StoreCfg.SessionTTL))
	}

	if cfg.FileUploadCfg.MaxFileCount < 1 {
		errs = append(errs, fmt.Sprintf("FILE_UPLOAD_MAX_FILE_COUNT must be positive, got %d", cfg.FileUploadCfg.MaxFileCount))
	}
	if cfg.FileUploadCfg.MaxFileSize > cfg.FileUploadCfg.MaxTotalSize {
		errs = append(errs, "FILE_UPLOAD_MAX_FILE_SIZE must not exceed FILE_UPLOAD_MAX_TOTAL_SIZE")
	}

	if !cfg.EnableMocks {
		if cfg.EmbeddingConnectorCfg.Url == "" {
			errs = append(errs, "EMBEDDING_SERVICE_URL is required when ENABLE_MOCKS is false")
		}
		if cfg.RerankerConnectorCfg.Url == "" {
			errs = append(errs, "RERANKER_SERVICE_URL is required when ENABLE_MOCKS is false")
		}
		if cfg.OCRConnectorCfg.Enabled && cfg.OCRConnectorCfg.Url == "" {
			errs = append(errs, "OCR_SERVICE_URL is required when OCR is enabled and ENABLE_MOCKS is false")
		}
		if cfg.LLMConnectorCfg.APIKey == "" {
			errs = append(errs, "LLM_API_KEY is required when ENABLE_MOCKS is false")
		}
	}

	if cfg.TelegramCfg.Enabled {
		if cfg.TelegramCfg.BotToken == "" {
			errs = append(errs, "TELEGRAM_BOT_TOKEN is required when TELEGRAM_ENABLED is true")
		}
		if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
			errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
		}
		if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
			errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
		}
		if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
			errs = append(errs, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
		}
		if cfg.TelegramCfg.HandlerTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("TELEGRAM_HANDLER_TIMEOUT must be positive, got %s", cfg.TelegramCfg.HandlerTimeout))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func loadMessages(cfg *Config) error {
	defaults := DefaultMessages()

	data, err := os.ReadFile(cfg.MessagesFile)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: messages file not found at %s, using default messages\n", cfg.MessagesFile)
		cfg.Messages = defaults
		return nil
	}
	if err != nil {
		return fmt.Errorf("read messages file: %w", err)
	}

	var msgs Messages
	if err := yaml.Unmarshal(data, &msgs); err != nil {
		return fmt.Errorf("parse messages YAML: %w", err)
	}

	fillMissing(&msgs.EmptyQuestion, defaults.EmptyQuestion)
	fillMissing(&msgs.EmbedFailed, defaults.EmbedFailed)
	fillMissing(&msgs.NoDocuments, defaults.NoDocuments)
	fillMissing(&msgs.QueryError, defaults.QueryError)
	fillMissing(&msgs.NoResponse, defaults.NoResponse)
	fillMissing(&msgs.UploadHint, defaults.UploadHint)

	if strings.Count(msgs.UploadHint, "%s") != 1 {
		return fmt.Errorf("upload_hint must contain exactly one %%s placeholder: %q", msgs.UploadHint)
	}

	cfg.Messages = msgs
	return nil
}

func fillMissing(field *string, def string) {
	if strings.TrimSpace(*field) == "" {
		*field = def
	}
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
