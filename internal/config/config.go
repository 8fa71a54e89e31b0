package config

import (
	"time"

	"github.com/spf13/viper"
)

type ServerCfg struct {
	Port                string `mapstructure:"port"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	Development         bool   `mapstructure:"development"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type S3Cfg struct {
	Region     string `mapstructure:"region"`
	Bucket     string `mapstructure:"bucket"`
	Endpoint   string `mapstructure:"endpoint"`
	PublicRead bool   `mapstructure:"public_read"`
}

type JwtCfg struct {
	Secret          string `mapstructure:"secret"`
	AccessTTLHours  int    `mapstructure:"access_ttl_hours"`
}

type MediaCfg struct {
	UploadTimeoutSeconds int `mapstructure:"upload_timeout_seconds"`
	MaxUploadBytes       int `mapstructure:"max_upload_bytes"`
}

type UpdatesCfg struct {
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
}

type Config struct {
	Server  ServerCfg  `mapstructure:"server"`
	Mongo   MongoCfg   `mapstructure:"mongo"`
	Redis   RedisCfg   `mapstructure:"redis"`
	Kafka   KafkaCfg   `mapstructure:"kafka"`
	S3      S3Cfg      `mapstructure:"s3"`
	JWT     JwtCfg     `mapstructure:"jwt"`
	Media   MediaCfg   `mapstructure:"media"`
	Updates UpdatesCfg `mapstructure:"updates"`
	// Derived
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	UploadTimeout time.Duration
	AccessTTL     time.Duration
	SweepInterval time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 15
	}
	if cfg.Media.UploadTimeoutSeconds == 0 {
		cfg.Media.UploadTimeoutSeconds = 60
	}
	if cfg.Media.MaxUploadBytes == 0 {
		cfg.Media.MaxUploadBytes = 32 << 20
	}
	if cfg.JWT.AccessTTLHours == 0 {
		cfg.JWT.AccessTTLHours = 72
	}
	if cfg.Updates.SweepIntervalMinutes == 0 {
		cfg.Updates.SweepIntervalMinutes = 60
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "chat"
	}
	cfg.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
	cfg.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
	cfg.UploadTimeout = time.Duration(cfg.Media.UploadTimeoutSeconds) * time.Second
	cfg.AccessTTL = time.Duration(cfg.JWT.AccessTTLHours) * time.Hour
	cfg.SweepInterval = time.Duration(cfg.Updates.SweepIntervalMinutes) * time.Minute
	return &cfg, nil
}
