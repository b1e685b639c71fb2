package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// Config keys. Each one is also read from the environment in upper case,
// so DATABASE_PATH overrides database_path from config.yaml.
const (
	cfgPort            = "port"
	cfgDatabasePath    = "database_path"
	cfgProjectsFile    = "projects_file"
	cfgContactEndpoint = "contact_endpoint"
	cfgContactRate     = "contact_rate"
	cfgSMTPHost        = "smtp_host"
	cfgSMTPPort        = "smtp_port"
	cfgSMTPUser        = "smtp_user"
	cfgSMTPPass        = "smtp_pass"
	cfgToEmail         = "to_email"
	cfgAdminUsername   = "admin_username"
	cfgAdminPassword   = "admin_password"
	cfgGinMode         = "gin_mode"
)

// SMTPConfig is where contact notifications are sent from and to.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	To   string
}

// Configured reports whether credentials are present.
func (s SMTPConfig) Configured() bool {
	return s.User != "" && s.Pass != ""
}

// Config is the resolved server configuration.
type Config struct {
	Port            string
	DatabasePath    string
	ProjectsFile    string
	ContactEndpoint string
	ContactRate     int // requests per minute per client
	SMTP            SMTPConfig
	AdminUsername   string
	AdminPassword   string
	GinMode         string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(cfgPort, "8080")
	v.SetDefault(cfgDatabasePath, "portfolio.db")
	v.SetDefault(cfgProjectsFile, "")
	v.SetDefault(cfgContactEndpoint, "")
	v.SetDefault(cfgContactRate, 10)
	v.SetDefault(cfgSMTPHost, "smtp.gmail.com")
	v.SetDefault(cfgSMTPPort, "587")
	v.SetDefault(cfgSMTPUser, "")
	v.SetDefault(cfgSMTPPass, "")
	v.SetDefault(cfgToEmail, "")
	v.SetDefault(cfgAdminUsername, "admin")
	v.SetDefault(cfgAdminPassword, "admin123")
	v.SetDefault(cfgGinMode, "")
	v.AutomaticEnv()
	return v
}

// loadConfig reads config.yaml from dir (if present) and the environment.
// A missing config file is not an error.
func loadConfig(dir string) (Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return configFrom(v)
}

func configFrom(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:            strings.TrimSpace(v.GetString(cfgPort)),
		DatabasePath:    v.GetString(cfgDatabasePath),
		ProjectsFile:    v.GetString(cfgProjectsFile),
		ContactEndpoint: v.GetString(cfgContactEndpoint),
		ContactRate:     v.GetInt(cfgContactRate),
		SMTP: SMTPConfig{
			Host: v.GetString(cfgSMTPHost),
			Port: v.GetString(cfgSMTPPort),
			User: v.GetString(cfgSMTPUser),
			Pass: v.GetString(cfgSMTPPass),
			To:   v.GetString(cfgToEmail),
		},
		AdminUsername: v.GetString(cfgAdminUsername),
		AdminPassword: v.GetString(cfgAdminPassword),
		GinMode:       v.GetString(cfgGinMode),
	}
	if cfg.Port == "" {
		return Config{}, errors.New("config: port must not be empty")
	}
	if cfg.ContactRate <= 0 {
		return Config{}, fmt.Errorf("config: contact_rate must be positive, got %d", cfg.ContactRate)
	}
	endpoint, err := resolveEndpoint(cfg.ContactEndpoint, cfg.Port)
	if err != nil {
		return Config{}, err
	}
	cfg.ContactEndpoint = endpoint
	if cfg.SMTP.To == "" {
		cfg.SMTP.To = cfg.SMTP.User
	}
	return cfg, nil
}

// resolveEndpoint makes the contact endpoint absolute. Empty means the
// site's own API; a path is resolved against the local listener.
func resolveEndpoint(raw, port string) (string, error) {
	base, err := url.Parse("http://127.0.0.1:" + port + "/")
	if err != nil {
		return "", fmt.Errorf("config: port %q: %w", port, err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "/api/contact"
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("config: contact_endpoint: %w", err)
	}
	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return "", fmt.Errorf("config: contact_endpoint scheme %q is not http(s)", ref.Scheme)
		}
		return ref.String(), nil
	}
	if ref.Host != "" {
		return "", fmt.Errorf("config: contact_endpoint %q has a host but no scheme", raw)
	}
	return base.ResolveReference(ref).String(), nil
}
