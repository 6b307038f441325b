package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseDriver string
	DatabaseURL    string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTLMin     int
	RefreshTTLMin    int

	KafkaBrokers []string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitPerMin int
	RateLimitBurst  int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	CORSOrigins []string
	CSRFEnabled bool
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not loaded: %v, using system environment", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "repair_shop"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseDriver: EnvDefault("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTLMin:     EnvIntDefault("JWT_TTL", 15),
		RefreshTTLMin:    EnvIntDefault("JWT_REFRESH_TTL", 20160),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ElasticURL:      os.Getenv("ES_URL"),
		ElasticUser:     os.Getenv("ES_USER"),
		ElasticPassword: os.Getenv("ES_PASSWORD"),
		ElasticIndex:    EnvDefault("ES_INDEX", "product_models"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		RateLimitPerMin: EnvIntDefault("RATE_LIMIT_PER_MIN", 30),
		RateLimitBurst:  EnvIntDefault("RATE_LIMIT_BURST", 10),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     EnvIntDefault("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     EnvDefault("MAIL_FROM", "no-reply@repair.shop"),

		CORSOrigins: CSV(os.Getenv("CORS_ORIGINS")),
		CSRFEnabled: EnvBool("CSRF_ENABLED", false),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
