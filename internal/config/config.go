// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// Configuration holds all service configuration.
type Configuration struct {
	Service       ServiceConfig
	Translation   TranslationConfig
	Filter        FilterConfig
	Cache         CacheConfig
	History       HistoryConfig
	STT           STTConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds general service settings.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
	GRPCPort  string
	Env       string
}

// TranslationConfig holds translation pipeline and provider settings.
type TranslationConfig struct {
	Provider        string // openai, google, mock
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     *float64 // nil keeps the provider default
	Timeout         time.Duration
	SourceLang      string
	TargetLang      string
	MaxTextLength   int
	CredentialsFile string // Google Cloud credentials for the google provider
}

// FilterConfig holds hallucination filter settings.
type FilterConfig struct {
	ConfigFile string
	Severity   string // lenient, standard, strict; empty keeps the filter file value
}

// CacheConfig holds translation cache settings.
type CacheConfig struct {
	TTL           time.Duration
	MaxEntries    int
	PurgeSchedule string
}

// HistoryConfig holds history persistence settings.
type HistoryConfig struct {
	SQLitePath    string // empty disables the SQLite store
	RetryDelay    time.Duration
	WriteTimeout  time.Duration
	Retention     time.Duration // 0 keeps history forever
	PruneSchedule string
}

// STTConfig holds Speech-to-Text provider settings.
type STTConfig struct {
	Provider      string // whisper, google, mock
	APIKey        string
	BaseURL       string
	Model         string
	Language      string // hint passed to the recognizer
	LanguageCode  string // BCP-47 code for Google Speech
	SampleRateHz  int
	AudioEncoding string
	PromptFile    string
	MinAudioBytes int64
	MaxAudioBytes int64
}

// KafkaConfig holds Kafka publisher and room consumer settings.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicRoom     string
	TopicUser     string
	Principal     string
	ConsumerGroup string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Load reads configuration from environment variables with defaults.
// Invalid values fall back to defaults.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-speech-translation")
	openAIKey := os.Getenv("OPENAI_API_KEY")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
			Env:       envOrDefault("ENV", "prod"),
		},
		Translation: TranslationConfig{
			Provider:        envOrDefault("TRANSLATION_PROVIDER", "mock"),
			APIKey:          envOrDefault("TRANSLATION_API_KEY", openAIKey),
			BaseURL:         envOrDefault("TRANSLATION_BASE_URL", "https://api.openai.com/v1"),
			Model:           envOrDefault("TRANSLATION_MODEL", "gpt-4o-mini"),
			Temperature:     envOptionalFloat("TRANSLATION_TEMPERATURE"),
			Timeout:         envOrDefaultDuration("TRANSLATION_TIMEOUT", 30*time.Second),
			SourceLang:      envOrDefault("TRANSLATION_SOURCE_LANG", "ar"),
			TargetLang:      envOrDefault("TRANSLATION_TARGET_LANG", "en"),
			MaxTextLength:   envOrDefaultInt("TRANSLATION_MAX_TEXT_LENGTH", 5000),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		Filter: FilterConfig{
			ConfigFile: os.Getenv("FILTER_CONFIG_FILE"),
			Severity:   os.Getenv("FILTER_SEVERITY"),
		},
		Cache: CacheConfig{
			TTL:           envOrDefaultDuration("CACHE_TTL", time.Hour),
			MaxEntries:    envOrDefaultInt("CACHE_MAX_ENTRIES", 1000),
			PurgeSchedule: envOrDefault("CACHE_PURGE_SCHEDULE", "@every 1m"),
		},
		History: HistoryConfig{
			SQLitePath:    envOrDefault("HISTORY_SQLITE_PATH", "translations.db"),
			RetryDelay:    envOrDefaultDuration("HISTORY_RETRY_DELAY", 2*time.Second),
			WriteTimeout:  envOrDefaultDuration("HISTORY_WRITE_TIMEOUT", 10*time.Second),
			Retention:     envOrDefaultDuration("HISTORY_RETENTION", 0),
			PruneSchedule: envOrDefault("HISTORY_PRUNE_SCHEDULE", "@daily"),
		},
		STT: STTConfig{
			Provider:      envOrDefault("STT_PROVIDER", "mock"),
			APIKey:        envOrDefault("STT_API_KEY", openAIKey),
			BaseURL:       envOrDefault("STT_BASE_URL", "https://api.openai.com/v1"),
			Model:         envOrDefault("STT_MODEL", "whisper-1"),
			Language:      envOrDefault("STT_LANGUAGE", "ar"),
			LanguageCode:  envOrDefault("STT_LANGUAGE_CODE", "ar-SA"),
			SampleRateHz:  envOrDefaultInt("STT_SAMPLE_RATE_HZ", 48000),
			AudioEncoding: envOrDefault("STT_AUDIO_ENCODING", "WEBM_OPUS"),
			PromptFile:    os.Getenv("STT_PROMPT_FILE"),
			MinAudioBytes: envOrDefaultInt64("STT_MIN_AUDIO_BYTES", 1000),
			MaxAudioBytes: envOrDefaultInt64("STT_MAX_AUDIO_BYTES", 25*1024*1024),
		},
		Kafka: KafkaConfig{
			Enabled:       envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:       splitCSV(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
			TopicRoom:     envOrDefault("KAFKA_TOPIC_ROOM", "translations.room.v1"),
			TopicUser:     envOrDefault("KAFKA_TOPIC_USER", "translations.user.v1"),
			Principal:     envOrDefault("KAFKA_PRINCIPAL", principal),
			ConsumerGroup: os.Getenv("KAFKA_CONSUMER_GROUP"),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

// LoadDotEnv loads variables from .env files into the environment. Missing
// files are ignored; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Validate reports settings that cannot be defaulted silently.
func (c *Configuration) Validate() error {
	var problems []string

	switch c.Translation.Provider {
	case "openai":
		if c.Translation.APIKey == "" {
			problems = append(problems, "TRANSLATION_API_KEY (or OPENAI_API_KEY) is required for the openai provider")
		}
	case "google", "mock":
	default:
		problems = append(problems, fmt.Sprintf("unknown TRANSLATION_PROVIDER %q", c.Translation.Provider))
	}

	switch c.STT.Provider {
	case "whisper":
		if c.STT.APIKey == "" {
			problems = append(problems, "STT_API_KEY (or OPENAI_API_KEY) is required for the whisper provider")
		}
	case "google", "mock":
	default:
		problems = append(problems, fmt.Sprintf("unknown STT_PROVIDER %q", c.STT.Provider))
	}

	for key, tag := range map[string]string{
		"TRANSLATION_SOURCE_LANG": c.Translation.SourceLang,
		"TRANSLATION_TARGET_LANG": c.Translation.TargetLang,
	} {
		if _, err := language.Parse(tag); err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s: %v", key, err))
		}
	}

	if _, err := cron.ParseStandard(c.Cache.PurgeSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("invalid CACHE_PURGE_SCHEDULE: %v", err))
	}
	if c.History.Retention > 0 {
		if _, err := cron.ParseStandard(c.History.PruneSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid HISTORY_PRUNE_SCHEDULE: %v", err))
		}
	}

	if c.STT.MinAudioBytes > c.STT.MaxAudioBytes {
		problems = append(problems, "STT_MIN_AUDIO_BYTES exceeds STT_MAX_AUDIO_BYTES")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		problems = append(problems, "KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOptionalFloat(key string) *float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return nil
	}
	return &v
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
