package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	AppEnv     string
	ServerPort string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	MongoURI string
	MongoDB  string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenMaxAge  int
	RefreshTokenMaxAge int

	BcryptCost   int
	CookieSecure bool

	UploadTempDir string

	// RedisURL enables the profile cache and the media cleanup queue; empty disables both.
	RedisURL       string
	UserCacheTTL   int
	CleanupWorkers int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", DriverPostgres),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "videotube"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenMaxAge:  getPositiveInt("ACCESS_TOKEN_MAX_AGE", 900),
		RefreshTokenMaxAge: getPositiveInt("REFRESH_TOKEN_MAX_AGE", 864000),

		BcryptCost:   getPositiveInt("BCRYPT_COST", 10),
		CookieSecure: getBool("COOKIE_SECURE", true),

		UploadTempDir: getEnv("UPLOAD_TEMP_DIR", "./public/temp"),

		RedisURL:       os.Getenv("REDIS_URL"),
		UserCacheTTL:   getPositiveInt("USER_CACHE_TTL", 300),
		CleanupWorkers: getPositiveInt("CLEANUP_WORKERS", 2),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	switch c.DBDriver {
	case DriverPostgres, DriverMongo:
	default:
		return errors.New("DB_DRIVER must be postgres or mongo")
	}
	return nil
}

// RedisEnabled reports whether REDIS_URL was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getPositiveInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
