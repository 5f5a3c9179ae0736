package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Sessions SessionConfig  `yaml:"sessions"`
	Roster   RosterConfig   `yaml:"roster"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Minio    MinioConfig    `yaml:"minio"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SessionConfig struct {
	MaxSessions int `yaml:"max_sessions"` // Maximum live UI sessions to keep, 0 = unlimited
}

type RosterConfig struct {
	SeedPath string `yaml:"seed_path"` // Optional JSON file with initial contractors
}

type SnapshotConfig struct {
	Backend         string `yaml:"backend"` // none, file, minio
	Path            string `yaml:"path"`
	ObjectName      string `yaml:"object_name"`
	IntervalMinutes int    `yaml:"interval_minutes"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type NotifyConfig struct {
	WebhookURL     string `yaml:"webhook_url"` // Empty = log-only notifications
	Seed           string `yaml:"seed"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Sessions.MaxSessions == 0 {
		cfg.Sessions.MaxSessions = 200
	}
	if cfg.Snapshot.Backend == "" {
		cfg.Snapshot.Backend = "none"
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = "roster-snapshot.json"
	}
	if cfg.Snapshot.ObjectName == "" {
		cfg.Snapshot.ObjectName = "roster-snapshot.json"
	}
	if cfg.Snapshot.IntervalMinutes == 0 {
		cfg.Snapshot.IntervalMinutes = 5
	}
	if cfg.Notify.TimeoutSeconds <= 0 {
		cfg.Notify.TimeoutSeconds = 30
	}
	if cfg.Notify.MaxRetries <= 0 {
		cfg.Notify.MaxRetries = 3
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides lets deployment environments override secrets and the
// listen port without editing the YAML file
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
	}
	if v := os.Getenv("NOTIFY_SEED"); v != "" {
		cfg.Notify.Seed = v
	}
}
