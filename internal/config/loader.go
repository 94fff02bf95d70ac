package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/elimvote/internal/adapters/kvstore"
	"github.com/okian/elimvote/internal/domain/round"
)

const (
	envPrefix      = "ELIMVOTE_"
	envConfigFile  = "ELIMVOTE_CONFIG"
	envDotenvFile  = "ELIMVOTE_ENV_FILE"
	defaultEnvFile = ".env"
)

// list keys accept comma separated env values.
var listKeys = map[string]bool{"rounds": true, "roster": true}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ELIMVOTE_CONFIG is set
//  3. dotenv file (ELIMVOTE_ENV_FILE, or ./.env when present)
//  4. env (prefix ELIMVOTE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	if err := loadDotenv(); err != nil {
		return nil, err
	}

	// ELIMVOTE_STORE_DRIVER -> store_driver
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" || key == "env_file" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotenv exports the dotenv file into the process environment without
// overriding variables that are already set.
func loadDotenv() error {
	path := os.Getenv(envDotenvFile)
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.AdminSecret == "":
		return fmt.Errorf("%w: admin_secret must not be empty", ErrInvalidConfig)
	case len(c.Rounds) == 0:
		return fmt.Errorf("%w: at least one round is required", ErrInvalidConfig)
	case c.BallotSize < 1:
		return fmt.Errorf("%w: ballot_size must be positive", ErrInvalidConfig)
	case c.LeaderboardSize < 1:
		return fmt.Errorf("%w: leaderboard_size must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.ConfirmLedgerSize < 1:
		return fmt.Errorf("%w: confirm_ledger_size must be positive", ErrInvalidConfig)
	}
	if _, err := round.NewSequence(c.Rounds...); err != nil {
		return fmt.Errorf("%w: rounds: %w", ErrInvalidConfig, err)
	}
	if len(c.Roster) > 0 && c.BallotSize > len(c.Roster) {
		return fmt.Errorf("%w: ballot_size %d exceeds roster size %d", ErrInvalidConfig, c.BallotSize, len(c.Roster))
	}
	if !slices.Contains([]string{
		kvstore.DriverMemory, kvstore.DriverFile, kvstore.DriverSQLite, kvstore.DriverPostgres, kvstore.DriverRedis,
	}, c.StoreDriver) {
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.StoreDriver != kvstore.DriverMemory && c.StoreDSN == "" {
		return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Sequence returns the configured round sequence. It must only be called on
// a validated Config.
func (c *Config) Sequence() round.Sequence {
	seq, err := round.NewSequence(c.Rounds...)
	if err != nil {
		return round.Default()
	}
	return seq
}

// StoreConfig returns the key-value store settings.
func (c *Config) StoreConfig() kvstore.Config {
	return kvstore.Config{
		Driver:    c.StoreDriver,
		DSN:       c.StoreDSN,
		Namespace: c.StoreNamespace,
		RedisDB:   c.RedisDB,
	}
}
