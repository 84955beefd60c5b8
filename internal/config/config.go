// Package config loads application configuration from the environment.
//
// All knobs are env vars (12-factor style). A local .env file is honoured in
// development; main loads it with godotenv before parsing. Parsing itself is
// delegated to caarlos0/env, which fills the struct from the `env` tags and
// applies the defaults; that keeps this package declarative instead of a wall
// of os.Getenv + strconv calls.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting for the raffle server.
type Config struct {
	Port int `env:"PORT" envDefault:"3000"`

	// DBPath is the SQLite file holding the matches. ":memory:" works too,
	// but then a restart forgets every assignment, so it is only useful for demos.
	DBPath string `env:"DB_PATH" envDefault:"data/santa.db"`

	// ParticipantsFile is the flat JSON roster. It is re-read on every
	// request so an operator can hot-edit it without a restart; if it does
	// not exist at startup it is bootstrapped from the built-in name list
	// using ShuffleSeed.
	ParticipantsFile string `env:"PARTICIPANTS_FILE" envDefault:"data/participants.json"`

	// ShuffleSeed drives the deterministic seating shuffle. Same seed, same
	// seating. Change it each year/event to reshuffle the numbers.
	ShuffleSeed int64 `env:"SHUFFLE_SEED" envDefault:"2025"`

	// AdminPassword is the shared admin secret, compared in constant time.
	// AdminPasswordHash, when set, takes precedence and must be a bcrypt
	// hash of the secret, preferable in production so the plaintext never
	// sits in the process environment.
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	// JWTSecret signs admin session tokens. Optional: when empty, the
	// /api/admin/login route is not registered and admin calls must carry
	// the password in the body (the original contract, still supported).
	JWTSecret string `env:"JWT_SECRET"`

	// StaticDir, when set, is served at / with an index.html fallback so the
	// built wheel client can ship in the same process.
	StaticDir string `env:"STATIC_DIR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Rate limit for the public API, per client IP. The spin endpoint is
	// unauthenticated, so a stuck client retrying in a loop must not be able
	// to hammer the store.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return Config{}, fmt.Errorf("config: ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	return cfg, nil
}
