// Package config resolves settings from flags, the environment, an optional
// bookstore.yaml and .env files, in that order of precedence.
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
	KeyMongoURI          = "mongo_uri"
	KeyDatabase          = "db_name"
	KeyCollection        = "books_collection"
	KeyOpTimeout         = "op_timeout"
	KeyConnectTimeout    = "connect_timeout"
	KeyAddr              = "app_addr"
	KeyJWTSecret         = "jwt_secret"
	KeyAdminUsername     = "admin_username"
	KeyAdminPasswordHash = "admin_password_hash"
	KeyRateLimitRPS      = "rate_limit_rps"
	KeyRateLimitBurst    = "rate_limit_burst"
	KeyLogLevel          = "log_level"
	KeyCORSOrigins       = "cors_allowed_origins"
	KeyEnableHSTS        = "enable_hsts"
)

type Config struct {
	MongoURI       string
	Database       string
	Collection     string
	OpTimeout      time.Duration
	ConnectTimeout time.Duration

	Addr              string
	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string
	RateLimitRPS      float64
	RateLimitBurst    int
	CORSOrigins       []string
	EnableHSTS        bool

	LogLevel string
}

// LoadEnvFiles loads .env then .env.local from the working directory.
// Variables already present in the process environment are kept.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// New returns a viper instance with defaults, environment lookup and, when
// present, bookstore.yaml from configDir.
func New(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyMongoURI, "mongodb://localhost:27017")
	v.SetDefault(KeyDatabase, "bookstore")
	v.SetDefault(KeyCollection, "books")
	v.SetDefault(KeyOpTimeout, 5*time.Second)
	v.SetDefault(KeyConnectTimeout, 10*time.Second)
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyAdminUsername, "admin")
	v.SetDefault(KeyRateLimitRPS, 10.0)
	v.SetDefault(KeyRateLimitBurst, 20)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCORSOrigins, "")
	v.SetDefault(KeyEnableHSTS, false)

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("bookstore")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// flagKeys maps command flag names to config keys.
var flagKeys = map[string]string{
	"mongo-uri":  KeyMongoURI,
	"db-name":    KeyDatabase,
	"collection": KeyCollection,
	"addr":       KeyAddr,
	"log-level":  KeyLogLevel,
}

// StoreFlags registers the flags shared by every command.
func StoreFlags(fs *pflag.FlagSet) {
	fs.String("mongo-uri", "", "MongoDB connection string (env MONGO_URI)")
	fs.String("db-name", "", "database name (env DB_NAME)")
	fs.String("collection", "", "books collection (env BOOKS_COLLECTION)")
	fs.String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
}

// BindFlags binds the known flags present in fs. Unset flags do not shadow
// lower-precedence sources.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the resolved settings out of v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		MongoURI:          v.GetString(KeyMongoURI),
		Database:          v.GetString(KeyDatabase),
		Collection:        v.GetString(KeyCollection),
		OpTimeout:         v.GetDuration(KeyOpTimeout),
		ConnectTimeout:    v.GetDuration(KeyConnectTimeout),
		Addr:              v.GetString(KeyAddr),
		JWTSecret:         v.GetString(KeyJWTSecret),
		AdminUsername:     v.GetString(KeyAdminUsername),
		AdminPasswordHash: v.GetString(KeyAdminPasswordHash),
		RateLimitRPS:      v.GetFloat64(KeyRateLimitRPS),
		RateLimitBurst:    v.GetInt(KeyRateLimitBurst),
		CORSOrigins:       splitList(v.GetString(KeyCORSOrigins)),
		EnableHSTS:        v.GetBool(KeyEnableHSTS),
		LogLevel:          strings.ToLower(v.GetString(KeyLogLevel)),
	}
	switch {
	case cfg.MongoURI == "":
		return Config{}, errors.New("config: mongo_uri is empty")
	case cfg.Database == "" || cfg.Collection == "":
		return Config{}, errors.New("config: db_name and books_collection are required")
	case cfg.OpTimeout <= 0:
		return Config{}, fmt.Errorf("config: op_timeout must be positive, got %s", cfg.OpTimeout)
	case cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0:
		return Config{}, errors.New("config: rate limits must be positive")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FromFlags is the usual command entry point: env files, viper, bound flags, Load.
func FromFlags(fs *pflag.FlagSet) (Config, error) {
	LoadEnvFiles()
	v, err := New(".")
	if err != nil {
		return Config{}, err
	}
	if err := BindFlags(v, fs); err != nil {
		return Config{}, err
	}
	return Load(v)
}
