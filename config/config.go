// Package config gathers every setting the service needs.
//
// Precedence is flags, then environment (including .env), then defaults. Environment names
// follow the keys, so database.dsn is DATABASE_DSN and minio.bucket is MINIO_BUCKET.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultPort           = "8080"
	defaultDSN            = "tools.db"
	defaultUploadDir      = "uploads"
	defaultMaxUploadBytes = 16 * 1024 * 1024
	defaultCacheTTL       = 5 * time.Minute
	defaultSweepGrace     = time.Hour
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// Config is the fully resolved runtime configuration.
type Config struct {
	Port     string
	GinMode  string
	LogMode  string
	Database DatabaseConfig
	Upload   UploadConfig
	Minio    MinioConfig
	Redis    RedisConfig
	CacheTTL time.Duration
	CORS     []string
	Sweep    SweepConfig
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// MinioConfig selects object storage. Left empty, component files go to a local directory.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// Enabled reports whether every field needed to reach the object store is set.
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != "" && m.AccessKey != "" && m.SecretKey != "" && m.Bucket != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SweepConfig struct {
	Grace time.Duration
}

// LoadEnvFile loads .env from the working directory. A missing file is ignored.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// New returns a viper instance with defaults applied and env lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", defaultPort)
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("log_mode", "dev")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", defaultDSN)
	v.SetDefault("upload.dir", defaultUploadDir)
	v.SetDefault("upload.max_bytes", defaultMaxUploadBytes)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.prefix", "components")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.ttl", defaultCacheTTL)
	v.SetDefault("cors.origins", strings.Join(defaultCORSOrigins, ","))
	v.SetDefault("sweep.grace", defaultSweepGrace)
	return v
}

// BindFlags binds each flag to its config key, turning "-" in the flag name into ".".
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for flagName, key := range keys {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// Load resolves a Config from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, errors.New("config: viper instance is required")
	}

	cfg := &Config{
		Port:    strings.TrimSpace(v.GetString("port")),
		GinMode: strings.TrimSpace(v.GetString("gin_mode")),
		LogMode: strings.TrimSpace(v.GetString("log_mode")),
		Database: DatabaseConfig{
			Driver: strings.TrimSpace(v.GetString("database.driver")),
			DSN:    strings.TrimSpace(v.GetString("database.dsn")),
		},
		Upload: UploadConfig{
			Dir:      strings.TrimSpace(v.GetString("upload.dir")),
			MaxBytes: v.GetInt64("upload.max_bytes"),
		},
		Minio: MinioConfig{
			Endpoint:  strings.TrimSpace(v.GetString("minio.endpoint")),
			AccessKey: strings.TrimSpace(v.GetString("minio.access_key")),
			SecretKey: strings.TrimSpace(v.GetString("minio.secret_key")),
			Bucket:    strings.TrimSpace(v.GetString("minio.bucket")),
			UseSSL:    v.GetBool("minio.use_ssl"),
			Prefix:    strings.Trim(strings.TrimSpace(v.GetString("minio.prefix")), "/"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("redis.addr")),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		CacheTTL: v.GetDuration("cache.ttl"),
		CORS:     splitList(v.GetString("cors.origins")),
		Sweep: SweepConfig{
			Grace: v.GetDuration("sweep.grace"),
		},
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	switch cfg.GinMode {
	case "":
		cfg.GinMode = "debug"
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("config: unknown GIN_MODE %q", cfg.GinMode)
	}
	if cfg.Database.DSN == "" {
		return nil, errors.New("config: DATABASE_DSN must not be empty")
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = defaultUploadDir
	}
	if cfg.Upload.MaxBytes <= 0 {
		cfg.Upload.MaxBytes = defaultMaxUploadBytes
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Sweep.Grace < 0 {
		cfg.Sweep.Grace = 0
	}

	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
