// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like MAIL_SMTP_HOST
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations (for running from different directories)
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Expand ${VAR} placeholders that survived the YAML merge.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pdf-relay"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 20 << 20 // 20 MiB
	}
	if cfg.Pipeline.Mode == "" {
		cfg.Pipeline.Mode = "generate"
	}
	if cfg.Pipeline.Decoration == "" {
		cfg.Pipeline.Decoration = "text"
	}
	if cfg.Mail.Transport == "" {
		cfg.Mail.Transport = "smtp"
	}
	if cfg.Mail.SMTP.Host == "" {
		cfg.Mail.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.Mail.SMTP.Port == 0 {
		cfg.Mail.SMTP.Port = 587
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 60
	}
	if cfg.Auth.Store == "" {
		cfg.Auth.Store = "memory"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Direct override if config values are still empty after expansion. These are
// the environment keys the original deployments recognize.
func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
	if cfg.Mail.Username == "" {
		if val := os.Getenv("EMAIL_USER"); val != "" {
			cfg.Mail.Username = val
		}
	}
	if cfg.Mail.Password == "" {
		if val := os.Getenv("EMAIL_PASS"); val != "" {
			cfg.Mail.Password = val
		}
	}
	if cfg.Mail.Receiver == "" {
		if val := os.Getenv("RECEIVER_EMAIL"); val != "" {
			cfg.Mail.Receiver = val
		}
	}
	if cfg.Auth.SessionSecret == "" {
		if val := os.Getenv("SESSION_SECRET"); val != "" {
			cfg.Auth.SessionSecret = val
		}
	}
	if cfg.Auth.Username == "" {
		if val := os.Getenv("LOGIN_USER"); val != "" {
			cfg.Auth.Username = val
		}
	}
	if cfg.Auth.Password == "" {
		if val := os.Getenv("LOGIN_PASS"); val != "" {
			cfg.Auth.Password = val
		}
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Pipeline.Mode {
	case "generate", "decorate":
	default:
		return fmt.Errorf("pipeline.mode must be generate or decorate, got %q", cfg.Pipeline.Mode)
	}

	switch cfg.Pipeline.Decoration {
	case "text", "image", "both":
	default:
		return fmt.Errorf("pipeline.decoration must be text, image or both, got %q", cfg.Pipeline.Decoration)
	}

	switch cfg.Mail.Transport {
	case "smtp", "ses":
	default:
		return fmt.Errorf("mail.transport must be smtp or ses, got %q", cfg.Mail.Transport)
	}

	if cfg.Mail.Receiver == "" {
		return fmt.Errorf("mail.receiver (RECEIVER_EMAIL) is required")
	}
	if cfg.Mail.Transport == "smtp" && cfg.Mail.Username == "" {
		return fmt.Errorf("mail.username (EMAIL_USER) is required for the smtp transport")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.Username == "" || cfg.Auth.Password == "" {
			return fmt.Errorf("auth.username and auth.password (LOGIN_USER/LOGIN_PASS) are required when auth is enabled")
		}
		if cfg.Auth.SessionSecret == "" {
			return fmt.Errorf("auth.session_secret (SESSION_SECRET) is required when auth is enabled")
		}
	}

	return nil
}
