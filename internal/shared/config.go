package shared

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// loads .env into the process environment, when present
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

const DefaultCORSOrigin = "https://ismylandlordnice.com"

type Config struct {
	AppEnv      string `validate:"required"`
	HTTPAddr    string `validate:"required"`
	MetricsAddr string

	StoreDriver   string `validate:"oneof=mysql mongo memory"`
	MySQLDSN      string `validate:"required_if=StoreDriver mysql"`
	MongoURI      string `validate:"required_if=StoreDriver mongo"`
	MongoDatabase string `validate:"required_if=StoreDriver mongo"`

	RedisAddr string // empty disables the lookup cache
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	CORSOrigin string `validate:"required"`

	APIBaseURL    string `validate:"required,url"`
	ImportWorkers int    `validate:"min=1"`
	ImportRPS     int    `validate:"min=1"`
}

// Load reads the process environment. Env names map to lower-case keys
// (REDIS_DB -> redis_db); empty values count as unset.
func Load() Config {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		log.Warn().Err(err).Msg("reading environment failed; using defaults")
	}

	str := func(key, def string) string {
		if v := k.String(key); v != "" {
			return v
		}
		return def
	}
	atoi := func(key string, def int) int {
		if v := k.String(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", key).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	httpAddr := str("http_addr", ":8080")
	if p := k.String("port"); p != "" {
		// PORT, as most PaaS set it, wins over HTTP_ADDR
		httpAddr = ":" + p
	}

	c := Config{
		AppEnv:        str("app_env", "development"),
		HTTPAddr:      httpAddr,
		MetricsAddr:   str("metrics_addr", ""),
		StoreDriver:   str("store_driver", "mysql"),
		MySQLDSN:      str("mysql_dsn", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		MongoURI:      str("db", ""),
		MongoDatabase: str("mongo_database", "landlord"),
		RedisAddr:     str("redis_addr", ""),
		RedisPass:     str("redis_password", ""),
		RedisDB:       atoi("redis_db", 0),
		CacheTTL:      time.Duration(atoi("cache_ttl_seconds", 300)) * time.Second,
		CORSOrigin:    str("cors_origin", DefaultCORSOrigin),
		APIBaseURL:    str("api_base_url", "http://localhost:8080"),
		ImportWorkers: atoi("import_workers", 8),
		ImportRPS:     atoi("import_rps", 20),
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty; lookup cache disabled")
	}
	return c
}

// Validate reports the first configuration problem, if any.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CORSOrigins is the allow-list handed to the router: the production origin
// in production, anything otherwise.
func (c Config) CORSOrigins() []string {
	if c.IsProduction() {
		return []string{c.CORSOrigin}
	}
	return []string{"*"}
}
