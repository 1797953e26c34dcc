package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends and session modes selectable at startup.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	SessionModeStateless = "stateless"
	SessionModeStateful  = "stateful"

	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

type AppConfig struct {
	App      AppSettings      `mapstructure:"app"`
	Auth     AuthSettings     `mapstructure:"auth"`
	Store    StoreSettings    `mapstructure:"store"`
	Postgres PostgresSettings `mapstructure:"postgres"`
	Redis    RedisSettings    `mapstructure:"redis"`
	Kafka    KafkaSettings    `mapstructure:"kafka"`
	SMTP     SMTPSettings     `mapstructure:"smtp"`
	Argon2   Argon2Settings   `mapstructure:"argon2"`
}

type AppSettings struct {
	Name        string   `mapstructure:"name"`
	Env         string   `mapstructure:"env"`
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// AuthSettings groups every credential lifetime so nothing is hard-coded.
type AuthSettings struct {
	SigningSecret   string        `mapstructure:"signing_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	TempPasswordTTL time.Duration `mapstructure:"temp_password_ttl"`
	ResetCodeTTL    time.Duration `mapstructure:"reset_code_ttl"`
	SessionMode     string        `mapstructure:"session_mode"`
	SessionBackend  string        `mapstructure:"session_backend"`
}

type StoreSettings struct {
	Backend string `mapstructure:"backend"`
}

type PostgresSettings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

type RedisSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	SessionPrefix string `mapstructure:"session_prefix"`
}

type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// SMTPSettings configures the mail collaborator. Leaving host/user/password
// empty switches delivery to the logging fallback.
type SMTPSettings struct {
	Host        string `mapstructure:"host"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	SkipVerify  bool   `mapstructure:"skip_verify"`
}

type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("DAODASH")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.cors_origins",
		"auth.signing_secret",
		"auth.token_ttl",
		"auth.temp_password_ttl",
		"auth.reset_code_ttl",
		"auth.session_mode",
		"auth.session_backend",
		"store.backend",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.session_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"smtp.host",
		"smtp.user",
		"smtp.password",
		"smtp.from_address",
		"smtp.from_name",
		"smtp.skip_verify",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.Auth.SigningSecret) == "" && c.Auth.SessionMode == SessionModeStateless {
		return fmt.Errorf("auth.signing_secret is required in stateless session mode")
	}

	switch c.Auth.SessionMode {
	case SessionModeStateless, SessionModeStateful:
	default:
		return fmt.Errorf("auth.session_mode must be %q or %q", SessionModeStateless, SessionModeStateful)
	}

	switch c.Store.Backend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		return fmt.Errorf("store.backend must be %q or %q", StoreBackendPostgres, StoreBackendMemory)
	}

	switch c.Auth.SessionBackend {
	case SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("auth.session_backend must be %q or %q", SessionBackendRedis, SessionBackendMemory)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dao-dash")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.cors_origins", []string{"*"})

	v.SetDefault("auth.signing_secret", "")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.temp_password_ttl", "24h")
	v.SetDefault("auth.reset_code_ttl", "15m")
	v.SetDefault("auth.session_mode", SessionModeStateless)
	v.SetDefault("auth.session_backend", SessionBackendMemory)

	v.SetDefault("store.backend", StoreBackendPostgres)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "daodash")
	v.SetDefault("postgres.password", "daodash_password")
	v.SetDefault("postgres.database", "daodash")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.session_prefix", "daodash:session")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "daodash")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from_address", "no-reply@dao-dash.local")
	v.SetDefault("smtp.from_name", "DAO Dash")
	v.SetDefault("smtp.skip_verify", false)

	v.SetDefault("argon2.memory", 65536)
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "DAODASH_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
