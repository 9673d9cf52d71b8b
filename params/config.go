package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RateLimit bounds admission per source IP: at most Max requests per Window.
type RateLimit struct {
	Max    int
	Window time.Duration
}

type Config struct {
	// DBLocation is a filesystem path or ":memory:".
	DBLocation string

	// SecretKey is the HMAC key used to sign bearer tokens. There is no
	// default; the server refuses to start without one.
	SecretKey string

	// TokenURL is the path segment of the login endpoint (POST /{TokenURL}).
	TokenURL string

	APIAddr string
	LogFile string

	RateLimit RateLimit

	// StartingBalance is credited to every account created at signup.
	StartingBalance int64
}

func Default() Config {
	return Config{
		DBLocation: ":memory:",
		TokenURL:   "token",
		APIAddr:    ":8000",
		RateLimit: RateLimit{
			Max:    5,
			Window: time.Second,
		},
		StartingBalance: 100,
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if v := os.Getenv("DB_LOCATION"); v != "" {
		cfg.DBLocation = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("TOKEN_URL"); v != "" {
		cfg.TokenURL = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit.Max = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.RateLimit.Window = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("STARTING_BALANCE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.StartingBalance = n
		}
	}

	return cfg
}
