package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Security SecurityConfig
	Relay    RelayConfig
	Slug     SlugConfig
	Log      LogConfig
	CORS     CORSConfig
	Server   ServerConfig
}

type AppConfig struct {
	Env   string
	Port  int
	Name  string
	Debug bool
}

type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnectionLifetime time.Duration
}

type RedisConfig struct {
	URL        string
	Password   string
	MaxRetries int
	PoolSize   int
	// PublicCacheTTL bounds how long a slug lookup is served from redis.
	PublicCacheTTL time.Duration
}

type SecurityConfig struct {
	// EncryptionKey protects stored workflow API keys; empty stores them as-is.
	EncryptionKey string
	JWTSecret     string
	JWTIssuer     string
	JWTExpiry     time.Duration
}

// RelayConfig controls the outbound call to the configured workflow endpoint.
type RelayConfig struct {
	Timeout   time.Duration
	UserAgent string
}

type SlugConfig struct {
	Length      int
	MaxAttempts int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	IdleTimeout    int
	MaxHeaderBytes int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config

	config.App = AppConfig{
		Env:   viper.GetString("APP_ENV"),
		Port:  viper.GetInt("APP_PORT"),
		Name:  viper.GetString("APP_NAME"),
		Debug: viper.GetBool("APP_DEBUG"),
	}

	config.Database = DatabaseConfig{
		URL:                viper.GetString("DATABASE_URL"),
		MaxConnections:     viper.GetInt("DB_MAX_CONNECTIONS"),
		MaxIdleConnections: viper.GetInt("DB_MAX_IDLE_CONNECTIONS"),
		ConnectionLifetime: time.Duration(viper.GetInt("DB_CONNECTION_LIFETIME_SECONDS")) * time.Second,
	}

	config.Redis = RedisConfig{
		URL:            viper.GetString("REDIS_URL"),
		Password:       viper.GetString("REDIS_PASSWORD"),
		MaxRetries:     viper.GetInt("REDIS_MAX_RETRIES"),
		PoolSize:       viper.GetInt("REDIS_POOL_SIZE"),
		PublicCacheTTL: time.Duration(viper.GetInt("PUBLIC_CACHE_TTL_SECONDS")) * time.Second,
	}

	config.Security = SecurityConfig{
		EncryptionKey: viper.GetString("ENCRYPTION_KEY"),
		JWTSecret:     viper.GetString("JWT_SECRET"),
		JWTIssuer:     viper.GetString("JWT_ISSUER"),
		JWTExpiry:     time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
	}

	config.Relay = RelayConfig{
		Timeout:   time.Duration(viper.GetInt("RELAY_TIMEOUT_SECONDS")) * time.Second,
		UserAgent: viper.GetString("RELAY_USER_AGENT"),
	}

	config.Slug = SlugConfig{
		Length:      viper.GetInt("SLUG_LENGTH"),
		MaxAttempts: viper.GetInt("SLUG_MAX_ATTEMPTS"),
	}

	config.Log = LogConfig{
		Level:  viper.GetString("LOG_LEVEL"),
		Format: viper.GetString("LOG_FORMAT"),
		Output: viper.GetString("LOG_OUTPUT"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
		AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
		AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		ExposeHeaders:    viper.GetStringSlice("CORS_EXPOSE_HEADERS"),
		AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
		MaxAge:           viper.GetInt("CORS_MAX_AGE"),
	}

	config.Server = ServerConfig{
		ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT_SECONDS"),
		WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT_SECONDS"),
		IdleTimeout:    viper.GetInt("SERVER_IDLE_TIMEOUT_SECONDS"),
		MaxHeaderBytes: viper.GetInt("SERVER_MAX_HEADER_BYTES"),
	}

	return &config, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Relay.Timeout <= 0 {
		errs = append(errs, errors.New("RELAY_TIMEOUT_SECONDS must be positive"))
	}
	if c.Slug.Length < 6 {
		errs = append(errs, errors.New("SLUG_LENGTH must be at least 6"))
	}
	if c.Slug.MaxAttempts <= 0 {
		errs = append(errs, errors.New("SLUG_MAX_ATTEMPTS must be positive"))
	}
	return errors.Join(errs...)
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_NAME", "embedded-chat")
	viper.SetDefault("APP_DEBUG", false)

	viper.SetDefault("DB_MAX_CONNECTIONS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNECTIONS", 5)
	viper.SetDefault("DB_CONNECTION_LIFETIME_SECONDS", 300)

	viper.SetDefault("REDIS_MAX_RETRIES", 3)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("PUBLIC_CACHE_TTL_SECONDS", 300)

	viper.SetDefault("JWT_ISSUER", "embedded-chat")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)

	viper.SetDefault("RELAY_TIMEOUT_SECONDS", 30)
	viper.SetDefault("RELAY_USER_AGENT", "Embedded-Chat/1.0")

	viper.SetDefault("SLUG_LENGTH", 10)
	viper.SetDefault("SLUG_MAX_ATTEMPTS", 10)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_OUTPUT", "stdout")

	viper.SetDefault("CORS_MAX_AGE", 300)

	viper.SetDefault("SERVER_READ_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT_SECONDS", 60)
	viper.SetDefault("SERVER_IDLE_TIMEOUT_SECONDS", 60)
	viper.SetDefault("SERVER_MAX_HEADER_BYTES", 1048576)
}
