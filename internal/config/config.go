package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string
	JWTSecret  string
	JWTExpiry  time.Duration
	AppEnv     string

	// PushTimeout bounds a single push delivery attempt.
	PushTimeout time.Duration
	// InvitesRequired makes acceptInvite fail when no invite record exists.
	InvitesRequired bool
	AutoMigrate     bool
}

var defaults = map[string]any{
	"DB_HOST":          "localhost",
	"DB_PORT":          "5431",
	"DB_USER":          "collabolab_user",
	"DB_PASSWORD":      "collabolab_pass",
	"DB_NAME":          "collabolab_db",
	"SERVER_PORT":      "8080",
	"JWT_SECRET":       "supersecretkey",
	"JWT_EXPIRY_HOURS": 24,
	"APP_ENV":          "development",
	"PUSH_TIMEOUT":     "5s",
	"INVITES_REQUIRED": false,
	"AUTO_MIGRATE":     true,
}

// Load reads an optional .env file and then the process environment.
// It returns whether a .env file was found so the caller can log it.
func Load() (*Config, bool) {
	found := godotenv.Load() == nil
	return FromViper(newViper()), found
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()
	return v
}

func FromViper(v *viper.Viper) *Config {
	pushTimeout := v.GetDuration("PUSH_TIMEOUT")
	if pushTimeout <= 0 {
		pushTimeout = 5 * time.Second
	}
	expiry := v.GetInt("JWT_EXPIRY_HOURS")
	if expiry <= 0 {
		expiry = 24
	}

	return &Config{
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetString("DB_PORT"),
		DBUser:          v.GetString("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		DBName:          v.GetString("DB_NAME"),
		ServerPort:      v.GetString("SERVER_PORT"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTExpiry:       time.Duration(expiry) * time.Hour,
		AppEnv:          v.GetString("APP_ENV"),
		PushTimeout:     pushTimeout,
		InvitesRequired: v.GetBool("INVITES_REQUIRED"),
		AutoMigrate:     v.GetBool("AUTO_MIGRATE"),
	}
}

// DSN is the gorm/pgx connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// DatabaseURL is the URL form used by the migration runner.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}
