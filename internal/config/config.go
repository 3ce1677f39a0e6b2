package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once at
// process entry and handed to every component that needs a slice of it.
type Config struct {
	Research  StageConfig     `yaml:"research" mapstructure:"research"`
	Build     StageConfig     `yaml:"build" mapstructure:"build"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Bedrock   BedrockConfig   `yaml:"bedrock" mapstructure:"bedrock"`
	Publish   PublishConfig   `yaml:"publish" mapstructure:"publish"`
	GitHub    GitHubConfig    `yaml:"github" mapstructure:"github"`
	S3        S3Config        `yaml:"s3" mapstructure:"s3"`
	Sender    SenderConfig    `yaml:"sender" mapstructure:"sender"`
	Outreach  OutreachConfig  `yaml:"outreach" mapstructure:"outreach"`
	SendGrid  SendGridConfig  `yaml:"sendgrid" mapstructure:"sendgrid"`
	SES       SESConfig       `yaml:"ses" mapstructure:"ses"`
	Twilio    TwilioConfig    `yaml:"twilio" mapstructure:"twilio"`
	SNS       SNSConfig       `yaml:"sns" mapstructure:"sns"`
	LeadLog   LeadLogConfig   `yaml:"leadlog" mapstructure:"leadlog"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StageConfig selects the provider and sampling parameters for one
// generation stage (research or build).
type StageConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// LLMConfig controls the shared retry policy and per-call timeout.
type LLMConfig struct {
	RetryAttempts    int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBaseDelayMs int `yaml:"retry_base_delay_ms" mapstructure:"retry_base_delay_ms"`
	TimeoutSecs      int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for any OpenAI-compatible chat completions API.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// BedrockConfig holds AWS Bedrock settings. Credentials come from the
// default AWS credential chain.
type BedrockConfig struct {
	Region string `yaml:"region" mapstructure:"region"`
	Model  string `yaml:"model" mapstructure:"model"`
}

// PublishConfig selects the artifact store backend.
type PublishConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
}

// GitHubConfig addresses the repository that hosts published pages.
type GitHubConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	APIBaseURL  string `yaml:"api_base_url" mapstructure:"api_base_url"`
	Owner       string `yaml:"owner" mapstructure:"owner"`
	Repo        string `yaml:"repo" mapstructure:"repo"`
	Branch      string `yaml:"branch" mapstructure:"branch"`
	RootDir     string `yaml:"root_dir" mapstructure:"root_dir"`
	SiteBaseURL string `yaml:"site_base_url" mapstructure:"site_base_url"`
}

// S3Config addresses the bucket that hosts published pages.
type S3Config struct {
	Bucket        string `yaml:"bucket" mapstructure:"bucket"`
	Region        string `yaml:"region" mapstructure:"region"`
	Prefix        string `yaml:"prefix" mapstructure:"prefix"`
	PublicBaseURL string `yaml:"public_base_url" mapstructure:"public_base_url"`
}

// SenderConfig describes who the outreach comes from.
type SenderConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Email       string `yaml:"email" mapstructure:"email"`
	PaymentLink string `yaml:"payment_link" mapstructure:"payment_link"`
}

// OutreachConfig controls automatic sending and channel backends.
type OutreachConfig struct {
	AutoSend        bool   `yaml:"auto_send" mapstructure:"auto_send"`
	MailBackend     string `yaml:"mail_backend" mapstructure:"mail_backend"`
	SMSBackend      string `yaml:"sms_backend" mapstructure:"sms_backend"`
	BatchPacingSecs int    `yaml:"batch_pacing_secs" mapstructure:"batch_pacing_secs"`
	BatchLimit      int    `yaml:"batch_limit" mapstructure:"batch_limit"`
}

// SendGridConfig holds SendGrid credentials.
type SendGridConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// SESConfig holds AWS SES settings.
type SESConfig struct {
	Region string `yaml:"region" mapstructure:"region"`
}

// TwilioConfig holds Twilio SMS credentials. Leaving them empty disables
// the Twilio SMS backend.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string `yaml:"auth_token" mapstructure:"auth_token"`
	FromNumber string `yaml:"from_number" mapstructure:"from_number"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
}

// SNSConfig holds AWS SNS SMS settings.
type SNSConfig struct {
	Region   string `yaml:"region" mapstructure:"region"`
	SenderID string `yaml:"sender_id" mapstructure:"sender_id"`
}

// LeadLogConfig selects the persisted lead log backend.
type LeadLogConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Token        string  `yaml:"token" mapstructure:"token"`
	LeadDB       string  `yaml:"lead_db" mapstructure:"lead_db"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreConfig configures the SQL backends of the lead log.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envOnlyKeys lists settings that have no default, mostly credentials.
var envOnlyKeys = []string{
	"research.model",
	"build.model",
	"anthropic.key",
	"anthropic.base_url",
	"openai.key",
	"gemini.key",
	"github.token",
	"github.owner",
	"github.repo",
	"github.root_dir",
	"github.site_base_url",
	"s3.bucket",
	"s3.prefix",
	"s3.public_base_url",
	"sender.email",
	"sender.payment_link",
	"outreach.auto_send",
	"sendgrid.key",
	"twilio.account_sid",
	"twilio.auth_token",
	"twilio.from_number",
	"sns.sender_id",
	"notion.token",
	"notion.lead_db",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("research.provider", "anthropic")
	v.SetDefault("research.temperature", 1.0)
	v.SetDefault("research.max_tokens", 2048)
	v.SetDefault("research.max_attempts", 5)
	v.SetDefault("build.provider", "anthropic")
	v.SetDefault("build.temperature", 0.7)
	v.SetDefault("build.max_tokens", 16000)
	v.SetDefault("llm.retry_attempts", 3)
	v.SetDefault("llm.retry_base_delay_ms", 2000)
	v.SetDefault("llm.timeout_secs", 120)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model", "anthropic.claude-3-5-sonnet-20240620-v1:0")
	v.SetDefault("publish.backend", "github")
	v.SetDefault("github.api_base_url", "https://api.github.com")
	v.SetDefault("github.branch", "main")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("sender.name", "Your Web Partner")
	v.SetDefault("outreach.mail_backend", "sendgrid")
	v.SetDefault("outreach.sms_backend", "twilio")
	v.SetDefault("outreach.batch_pacing_secs", 5)
	v.SetDefault("outreach.batch_limit", 50)
	v.SetDefault("ses.region", "us-east-1")
	v.SetDefault("sns.region", "us-east-1")
	v.SetDefault("twilio.base_url", "https://api.twilio.com")
	v.SetDefault("leadlog.backend", "sqlite")
	v.SetDefault("notion.rate_limit_rps", 3.0)
	v.SetDefault("notion.max_retries", 3)
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Keys without a default are only seen by Unmarshal when bound.
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Read config file (optional)
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

// Validate checks that the settings required by a command are present.
// Mode is one of "run", "send-pending" or "leads".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run":
		errs = append(errs, c.validateStage("research", c.Research)...)
		errs = append(errs, c.validateStage("build", c.Build)...)
		errs = append(errs, c.validatePublish()...)
		errs = append(errs, c.validateLeadLog()...)
		if c.Research.MaxAttempts < 1 || c.Research.MaxAttempts > 20 {
			errs = append(errs, "research.max_attempts must be between 1 and 20")
		}
	case "send-pending":
		errs = append(errs, c.validateLeadLog()...)
		if c.Outreach.BatchPacingSecs < 0 {
			errs = append(errs, "outreach.batch_pacing_secs must be >= 0")
		}
	case "leads":
		errs = append(errs, c.validateLeadLog()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.LLM.RetryAttempts < 0 {
		errs = append(errs, "llm.retry_attempts must be >= 0")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStage(name string, s StageConfig) []string {
	var errs []string
	if s.Temperature < 0 || s.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("%s.temperature must be between 0 and 2", name))
	}
	if s.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("%s.max_tokens must be > 0", name))
	}
	switch strings.ToLower(s.Provider) {
	case "anthropic":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case "openai":
		if c.OpenAI.Key == "" {
			errs = append(errs, "openai.key is required")
		}
	case "gemini":
		if c.Gemini.Key == "" {
			errs = append(errs, "gemini.key is required")
		}
	case "bedrock":
		if c.Bedrock.Region == "" {
			errs = append(errs, "bedrock.region is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("%s.provider %q is not supported", name, s.Provider))
	}
	return errs
}

func (c *Config) validatePublish() []string {
	var errs []string
	switch c.Publish.Backend {
	case "github":
		if c.GitHub.Token == "" {
			errs = append(errs, "github.token is required")
		}
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			errs = append(errs, "github.owner and github.repo are required")
		}
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, "s3.bucket is required")
		}
		if c.S3.PublicBaseURL == "" {
			errs = append(errs, "s3.public_base_url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("publish.backend %q is not supported", c.Publish.Backend))
	}
	return errs
}

func (c *Config) validateLeadLog() []string {
	var errs []string
	switch c.LeadLog.Backend {
	case "notion":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.LeadDB == "" {
			errs = append(errs, "notion.lead_db is required")
		}
		if c.Notion.MaxRetries < 0 {
			errs = append(errs, "notion.max_retries must be >= 0")
		}
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("leadlog.backend %q is not supported", c.LeadLog.Backend))
	}
	return errs
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
