package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string `mapstructure:"PORT"`      // サーバーポート（8080）
	GoEnv    string `mapstructure:"GO_ENV"`    // dev/prod
	LogLevel string `mapstructure:"LOG_LEVEL"` // debug/info/warn/error
	FEURL    string `mapstructure:"FE_URL"`    // フロントURL（CORS）

	DatabaseURL      string `mapstructure:"DATABASE_URL"` // あれば最優先
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     int    `mapstructure:"POSTGRES_PORT"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	JWTSecret string `mapstructure:"JWT_SECRET"` // JWT署名シークレット（認証は外部、検証のみ）

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// 通知キュー（asynq）
	NotifyQueue       string `mapstructure:"NOTIFY_QUEUE"`
	WorkerConcurrency int    `mapstructure:"WORKER_CONCURRENCY"`

	// ファイル保存（supabase storage）
	StorageURL    string `mapstructure:"STORAGE_URL"`
	StorageKey    string `mapstructure:"STORAGE_KEY"`
	StorageBucket string `mapstructure:"STORAGE_BUCKET"`
	UploadDir     string `mapstructure:"UPLOAD_DIR"` // STORAGE_URLが無い時のローカル保存先
}

var keys = []string{
	"PORT", "GO_ENV", "LOG_LEVEL", "FE_URL",
	"DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE",
	"JWT_SECRET",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"NOTIFY_QUEUE", "WORKER_CONCURRENCY",
	"STORAGE_URL", "STORAGE_KEY", "STORAGE_BUCKET", "UPLOAD_DIR",
}

// Loadは.env（あれば）と環境変数から読む
func Load() (Config, error) {
	// .envが無いのは正常（本番は環境変数だけ）
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Unmarshalに載せるためキーを明示的にbindする
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FE_URL", "http://localhost:3000")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFY_QUEUE", "notifications")
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("STORAGE_BUCKET", "gigmarket")
	v.SetDefault("UPLOAD_DIR", "./uploads")
}

// 必須チェック
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseURL == "" {
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
		if c.PostgresPassword == "" {
			return fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be > 0")
	}
	switch c.GoEnv {
	case "dev", "test", "prod":
	default:
		return fmt.Errorf("GO_ENV must be dev, test or prod")
	}
	// 本番はファイル保存先が必須
	if c.GoEnv == "prod" && (c.StorageURL == "" || c.StorageKey == "") {
		return fmt.Errorf("STORAGE_URL and STORAGE_KEY are required in prod")
	}
	return nil
}

func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
