package gateway

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/configutil"
	"github.com/sj-distributor/SmartTalk-sub000/pkg/session"
	telephony "github.com/sj-distributor/SmartTalk-sub000/pkg/telephony/twilio"
)

// Config is the full gateway configuration, loaded from a single file.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Server     ServerConfig              `mapstructure:"server"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Model      ModelConfig               `mapstructure:"model"`
	Recording  RecordingConfig           `mapstructure:"recording"`
	IdleFollow IdleFollowConfig          `mapstructure:"idle_follow_up"`
	Resilience ResilienceConfig          `mapstructure:"resilience"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Privacy    PrivacyConfig             `mapstructure:"privacy"`
	Twilio     telephony.Config          `mapstructure:"twilio"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	StreamPath  string `mapstructure:"stream_path"`
	BrowserPath string `mapstructure:"browser_path"`
}

// ProviderConfig carries one provider's opaque settings block. The concrete
// keys depend on the provider id.
type ProviderConfig struct {
	Settings map[string]any `mapstructure:"settings"`
}

// ProviderSettings are the decoded settings shared by all realtime speech
// providers.
type ProviderSettings struct {
	APIKey     string `mapstructure:"api_key"`
	ServiceURL string `mapstructure:"service_url"`
	Region     string `mapstructure:"region"`
}

type ModelConfig struct {
	Provider    string           `mapstructure:"provider"`
	Model       string           `mapstructure:"model"`
	Voice       string           `mapstructure:"voice"`
	Prompt      string           `mapstructure:"prompt"`
	Temperature float64          `mapstructure:"temperature"`
	Tools       []map[string]any `mapstructure:"tools"`
}

type RecordingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ArtifactsDir string `mapstructure:"artifacts_dir"`
}

type IdleFollowConfig struct {
	TimeoutMS  int    `mapstructure:"timeout_ms"`
	Message    string `mapstructure:"message"`
	SkipRounds int    `mapstructure:"skip_rounds"`
}

type ResilienceConfig struct {
	DialRetries       int `mapstructure:"dial_retries"`
	DialBackoffMS     int `mapstructure:"dial_backoff_ms"`
	BreakerThreshold  int `mapstructure:"breaker_threshold"`
	BreakerCooldownMS int `mapstructure:"breaker_cooldown_ms"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// LoadConfig reads and decodes the gateway configuration file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.stream_path", "/media")
	v.SetDefault("server.browser_path", "/ws")
	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.temperature", 0.8)
	v.SetDefault("recording.enabled", false)
	v.SetDefault("idle_follow_up.timeout_ms", 0)
	v.SetDefault("idle_follow_up.skip_rounds", 0)
	v.SetDefault("resilience.dial_retries", 1)
	v.SetDefault("resilience.dial_backoff_ms", 200)
	v.SetDefault("resilience.breaker_threshold", 3)
	v.SetDefault("resilience.breaker_cooldown_ms", 30000)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("privacy.redact_pii", true)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	return cfg, nil
}

// DecodeProviderSettings decodes one provider's opaque settings block.
func DecodeProviderSettings(raw map[string]any) (ProviderSettings, error) {
	var settings ProviderSettings
	if err := configutil.DecodeSettings(raw, &settings); err != nil {
		return ProviderSettings{}, err
	}
	return settings, nil
}

// idlePolicy converts the configured follow-up block into a session policy,
// or nil when no timeout is configured.
func (c Config) idlePolicy() *session.IdleFollowUpPolicy {
	if c.IdleFollow.TimeoutMS <= 0 {
		return nil
	}
	return &session.IdleFollowUpPolicy{
		Timeout:    time.Duration(c.IdleFollow.TimeoutMS) * time.Millisecond,
		Message:    c.IdleFollow.Message,
		SkipRounds: c.IdleFollow.SkipRounds,
	}
}
