package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Clarify   ClarifyConfig   `yaml:"clarify" mapstructure:"clarify"`
	Lifecycle LifecycleConfig `yaml:"lifecycle" mapstructure:"lifecycle"`
	Matching  MatchingConfig  `yaml:"matching" mapstructure:"matching"`
	Messaging MessagingConfig `yaml:"messaging" mapstructure:"messaging"`
	Temporal  TemporalConfig  `yaml:"temporal" mapstructure:"temporal"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	AssessModel string `yaml:"assess_model" mapstructure:"assess_model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig tunes the extraction call and its acceptance threshold.
type ExtractConfig struct {
	ConfidenceThreshold float64       `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	FieldThreshold      float64       `yaml:"field_threshold" mapstructure:"field_threshold"`
	Timeout             time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts         int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff      time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff          time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// ClarifyConfig configures the self-ask chain.
type ClarifyConfig struct {
	MaxQuestions  int           `yaml:"max_questions" mapstructure:"max_questions"`
	AbandonAfter  time.Duration `yaml:"abandon_after" mapstructure:"abandon_after"`
	Language      string        `yaml:"language" mapstructure:"language"`
	QuestionsFile string        `yaml:"questions_file" mapstructure:"questions_file"`
}

// LifecycleConfig configures analysis dispatch.
type LifecycleConfig struct {
	Dispatcher     string        `yaml:"dispatcher" mapstructure:"dispatcher"`
	Concurrency    int           `yaml:"concurrency" mapstructure:"concurrency"`
	AnalyzeTimeout time.Duration `yaml:"analyze_timeout" mapstructure:"analyze_timeout"`
	StallAfter     time.Duration `yaml:"stall_after" mapstructure:"stall_after"`
	Assess         bool          `yaml:"assess" mapstructure:"assess"`
}

// MatchingConfig configures mentor ranking.
type MatchingConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
}

// MessagingConfig configures the outbound messaging gateway.
type MessagingConfig struct {
	Transport        string        `yaml:"transport" mapstructure:"transport"`
	WebhookURL       string        `yaml:"webhook_url" mapstructure:"webhook_url"`
	Token            string        `yaml:"token" mapstructure:"token"`
	RatePerSecond    float64       `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	BreakerThreshold int           `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
}

// TemporalConfig holds Temporal connection settings.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" mapstructure:"host_port"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue string `yaml:"task_queue" mapstructure:"task_queue"`
}

// NotionConfig holds Notion API credentials and the mentor database id.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	MentorDB string `yaml:"mentor_db" mapstructure:"mentor_db"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("IDEAFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "ideaflow.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// AutomaticEnv only sees keys viper already knows about, so secrets
	// get an empty default to make IDEAFLOW_ANTHROPIC_KEY etc. resolvable.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.mentor_db", "")
	v.SetDefault("messaging.token", "")
	v.SetDefault("messaging.webhook_url", "")

	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.assess_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)

	v.SetDefault("extract.confidence_threshold", 0.70)
	v.SetDefault("extract.field_threshold", 0.60)
	v.SetDefault("extract.timeout", "20s")
	v.SetDefault("extract.max_attempts", 3)
	v.SetDefault("extract.initial_backoff", "500ms")
	v.SetDefault("extract.max_backoff", "4s")

	v.SetDefault("clarify.max_questions", 5)
	v.SetDefault("clarify.abandon_after", "48h")
	v.SetDefault("clarify.language", "en")

	v.SetDefault("lifecycle.dispatcher", "local")
	v.SetDefault("lifecycle.concurrency", 4)
	v.SetDefault("lifecycle.analyze_timeout", "60s")
	v.SetDefault("lifecycle.stall_after", "10m")
	v.SetDefault("lifecycle.assess", false)

	v.SetDefault("matching.limit", 5)

	v.SetDefault("messaging.transport", "log")
	v.SetDefault("messaging.rate_per_second", 5.0)
	v.SetDefault("messaging.timeout", "10s")
	v.SetDefault("messaging.breaker_threshold", 5)
	v.SetDefault("messaging.breaker_cooldown", "30s")

	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "ideaflow-analysis")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
