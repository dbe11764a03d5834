package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	ESign    ESignConfig    `yaml:"esign"`
	Storage  StorageConfig  `yaml:"storage"`
	Notify   NotifyConfig   `yaml:"notify"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// ServerConfig represents server identity configuration
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// APIConfig represents API configuration
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `yaml:"url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	SetupTokenTTL   time.Duration `yaml:"setup_token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ESignConfig represents e-signature provider configuration
type ESignConfig struct {
	// Provider selects the active implementation: dropbox_sign | docusign
	Provider string `yaml:"provider"`

	LandlordName  string `yaml:"landlord_name"`
	LandlordEmail string `yaml:"landlord_email"`

	DropboxSign DropboxSignConfig `yaml:"dropbox_sign"`
	DocuSign    DocuSignConfig    `yaml:"docusign"`
}

// DropboxSignConfig represents Dropbox Sign API configuration
type DropboxSignConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DocuSignConfig represents DocuSign JWT-grant configuration
type DocuSignConfig struct {
	ClientID       string        `yaml:"client_id"`
	UserID         string        `yaml:"user_id"`
	AccountID      string        `yaml:"account_id"`
	BasePath       string        `yaml:"base_path"`
	OAuthBasePath  string        `yaml:"oauth_base_path"`
	PrivateKeyFile string        `yaml:"private_key_file"`
	Timeout        time.Duration `yaml:"timeout"`
}

// StorageConfig represents document storage configuration
type StorageConfig struct {
	// Backend selects the active implementation: s3 | local
	Backend string `yaml:"backend"`

	LocalDir string   `yaml:"local_dir"`
	S3       S3Config `yaml:"s3"`
}

// S3Config represents S3 (or minio) configuration
type S3Config struct {
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	BaseEndpoint string `yaml:"base_endpoint"`
}

// NotifyConfig represents notification configuration
type NotifyConfig struct {
	// Mode selects the notifier implementation: sync | queued
	Mode string `yaml:"mode"`

	FromAddress string   `yaml:"from_address"`
	AdminEmails []string `yaml:"admin_emails"`
	FrontendURL string   `yaml:"frontend_url"`
}

// WorkerConfig represents background worker configuration
type WorkerConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ReminderHour      int           `yaml:"reminder_hour"`
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}

	if apiKey := os.Getenv("DROPBOX_SIGN_API_KEY"); apiKey != "" {
		c.ESign.DropboxSign.APIKey = apiKey
	}

	if clientID := os.Getenv("DOCUSIGN_CLIENT_ID"); clientID != "" {
		c.ESign.DocuSign.ClientID = clientID
	}

	if accessKey := os.Getenv("S3_ACCESS_KEY"); accessKey != "" {
		c.Storage.S3.AccessKey = accessKey
	}

	if secretKey := os.Getenv("S3_SECRET_KEY"); secretKey != "" {
		c.Storage.S3.SecretKey = secretKey
	}

	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		c.Notify.FrontendURL = frontendURL
	}
}

// setDefaults fills in defaults for optional values
func (c *Config) setDefaults() {
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = 15 * time.Minute
	}
	if c.JWT.RefreshTokenTTL == 0 {
		c.JWT.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.JWT.SetupTokenTTL == 0 {
		c.JWT.SetupTokenTTL = 72 * time.Hour
	}

	if c.ESign.Provider == "" {
		c.ESign.Provider = "dropbox_sign"
	}
	if c.ESign.DropboxSign.BaseURL == "" {
		c.ESign.DropboxSign.BaseURL = "https://api.hellosign.com/v3"
	}
	if c.ESign.DropboxSign.Timeout == 0 {
		c.ESign.DropboxSign.Timeout = 60 * time.Second
	}
	if c.ESign.DocuSign.BasePath == "" {
		c.ESign.DocuSign.BasePath = "https://demo.docusign.net/restapi"
	}
	if c.ESign.DocuSign.OAuthBasePath == "" {
		c.ESign.DocuSign.OAuthBasePath = "https://account-d.docusign.com"
	}
	if c.ESign.DocuSign.Timeout == 0 {
		c.ESign.DocuSign.Timeout = 60 * time.Second
	}
	if c.ESign.LandlordName == "" {
		c.ESign.LandlordName = "Property Management"
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "data/documents"
	}

	if c.Notify.Mode == "" {
		c.Notify.Mode = "sync"
	}

	if c.Worker.ReconcileInterval == 0 {
		c.Worker.ReconcileInterval = 15 * time.Minute
	}
	if c.Worker.ReminderHour == 0 {
		c.Worker.ReminderHour = 8
	}
}
