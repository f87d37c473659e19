package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageSQLite    = "sqlite"
	StorageFirestore = "firestore"

	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

type Config struct {
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StorageDriver              string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath                 string `env:"SQLITE_PATH" envDefault:"campuslink.db"`
	FirebaseProject            string `env:"FIREBASE_PROJECT_ID"`
	FirebaseServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	FirebaseServiceAccountJSON string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`

	AuthProvider string        `env:"AUTH_PROVIDER" envDefault:"jwt"`
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"development-secret"`
	JWTExpiry    time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	StorageBucket     string `env:"STORAGE_BUCKET"`
	MaxAttachmentSize int64  `env:"MAX_ATTACHMENT_SIZE" envDefault:"10485760"`

	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisChannelPrefix string `env:"REDIS_CHANNEL_PREFIX" envDefault:"campuslink:room:"`

	WSSendBuffer    int           `env:"WS_SEND_BUFFER" envDefault:"64"`
	WSWriteTimeout  time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	WSPongTimeout   time.Duration `env:"WS_PONG_TIMEOUT" envDefault:"60s"`
	WSMaxFrameBytes int64         `env:"WS_MAX_FRAME_BYTES" envDefault:"65536"`

	MessageRatePerSecond float64 `env:"MESSAGE_RATE_PER_SECOND" envDefault:"5"`
	MessageRateBurst     int     `env:"MESSAGE_RATE_BURST" envDefault:"10"`
	HTTPRatePerSecond    float64 `env:"HTTP_RATE_PER_SECOND" envDefault:"20"`
	HTTPRateBurst        int     `env:"HTTP_RATE_BURST" envDefault:"40"`
}

func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite storage driver")
		}
	case StorageFirestore:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.AuthProvider {
	case AuthJWT:
		if !c.IsDevelopment() && (c.JWTSecret == "" || c.JWTSecret == "development-secret") {
			return fmt.Errorf("JWT_SECRET must be set outside development")
		}
	case AuthFirebase:
		if c.FirebaseProject == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firebase auth provider")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// NeedsFirebase reports whether a Firebase app has to be initialised.
func (c *Config) NeedsFirebase() bool {
	return c.StorageDriver == StorageFirestore || c.AuthProvider == AuthFirebase
}
