// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Mail     MailConfig     `mapstructure:"mail"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // seconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // seconds
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// PipelineConfig selects the document assembler variant for this deployment.
// Mode is "generate" or "decorate"; Decoration is "text", "image" or "both"
// and only applies in decorate mode.
type PipelineConfig struct {
	Mode       string `mapstructure:"mode"`
	Decoration string `mapstructure:"decoration"`
	HeaderText string `mapstructure:"header_text"`
	FooterText string `mapstructure:"footer_text"`
}

// MailConfig holds settings for the outbound mail transport.
type MailConfig struct {
	Transport string `mapstructure:"transport"` // "smtp" or "ses"
	Username  string `mapstructure:"username"`  // service mailbox, EMAIL_USER
	Password  string `mapstructure:"password"`  // EMAIL_PASS
	Receiver  string `mapstructure:"receiver"`  // fixed recipient, RECEIVER_EMAIL

	SMTP struct {
		Host   string `mapstructure:"host"`
		Port   int    `mapstructure:"port"`
		UseTLS bool   `mapstructure:"use_tls"`
	} `mapstructure:"smtp"`

	SES struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"ses"`
}

// AuthConfig holds the optional login/session gate settings.
type AuthConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Username      string `mapstructure:"username"` // LOGIN_USER
	Password      string `mapstructure:"password"` // LOGIN_PASS
	SessionSecret string `mapstructure:"session_secret"`
	SessionTTL    int    `mapstructure:"session_ttl"` // minutes
	Store         string `mapstructure:"store"`       // "memory" or "redis"
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
