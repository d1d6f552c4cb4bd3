package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config captures environment driven configuration values for the marketplace service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      string
	JWTLeeway        time.Duration
	CleaningFee      decimal.Decimal
	ServiceFeeRate   decimal.Decimal
	BlockCheckoutDay bool
	CacheTTL         time.Duration
	CacheSize        int
	AllowedOrigins   []string
	LogLevel         slog.Level
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set win, and absent files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Every missing or malformed variable
// is collected so one error names all of them.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "marketplace.db",
		JWTLeeway:        30 * time.Second,
		CleaningFee:      decimal.NewFromInt(50),
		ServiceFeeRate:   decimal.RequireFromString("0.10"),
		BlockCheckoutDay: true,
		CacheTTL:         30 * time.Second,
		CacheSize:        1024,
		AllowedOrigins:   []string{"http://localhost:5173"},
		LogLevel:         slog.LevelInfo,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := lookup("MARKETPLACE_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "MARKETPLACE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := lookup("MARKETPLACE_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := lookup("MARKETPLACE_JWT_SECRET"); secret == "" {
		missing = append(missing, "MARKETPLACE_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}
	cfg.JWTIssuer = lookup("MARKETPLACE_JWT_ISSUER")
	cfg.JWTAudience = lookup("MARKETPLACE_JWT_AUDIENCE")

	if value := lookup("MARKETPLACE_JWT_LEEWAY"); value != "" {
		leeway, err := time.ParseDuration(value)
		if err != nil || leeway < 0 {
			invalid = append(invalid, "MARKETPLACE_JWT_LEEWAY")
		} else {
			cfg.JWTLeeway = leeway
		}
	}

	if value := lookup("MARKETPLACE_CLEANING_FEE"); value != "" {
		fee, err := decimal.NewFromString(value)
		if err != nil || fee.IsNegative() {
			invalid = append(invalid, "MARKETPLACE_CLEANING_FEE")
		} else {
			cfg.CleaningFee = fee
		}
	}

	if value := lookup("MARKETPLACE_SERVICE_FEE_RATE"); value != "" {
		rate, err := decimal.NewFromString(value)
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			invalid = append(invalid, "MARKETPLACE_SERVICE_FEE_RATE")
		} else {
			cfg.ServiceFeeRate = rate
		}
	}

	if value := lookup("MARKETPLACE_BLOCK_CHECKOUT_DAY"); value != "" {
		block, err := strconv.ParseBool(value)
		if err != nil {
			invalid = append(invalid, "MARKETPLACE_BLOCK_CHECKOUT_DAY")
		} else {
			cfg.BlockCheckoutDay = block
		}
	}

	if value := lookup("MARKETPLACE_CACHE_TTL"); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "MARKETPLACE_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if value := lookup("MARKETPLACE_CACHE_SIZE"); value != "" {
		size, err := strconv.Atoi(value)
		if err != nil || size <= 0 {
			invalid = append(invalid, "MARKETPLACE_CACHE_SIZE")
		} else {
			cfg.CacheSize = size
		}
	}

	if value := lookup("MARKETPLACE_ALLOWED_ORIGINS"); value != "" {
		origins := make([]string, 0, 2)
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.AllowedOrigins = origins
	}

	if value := lookup("MARKETPLACE_LOG_LEVEL"); value != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err != nil {
			invalid = append(invalid, "MARKETPLACE_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
