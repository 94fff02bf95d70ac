// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file, a dotenv file and ELIMVOTE_ variables on top.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"slices"

	"github.com/okian/elimvote/internal/adapters/kvstore"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AdminSecret is the shared administrator secret.
	AdminSecret string `koanf:"admin_secret"`

	// Rounds lists the round keys in order.
	Rounds []string `koanf:"rounds"`

	// Roster seeds a fresh state.
	Roster []string `koanf:"roster"`

	// BallotSize is the exact number of names a ballot must carry.
	BallotSize int `koanf:"ballot_size"`

	// LeaderboardSize is the number of rows shown and archived.
	LeaderboardSize int `koanf:"leaderboard_size"`

	// QueueSize bounds the pending command queue.
	QueueSize int `koanf:"queue_size"`

	// ConfirmLedgerSize bounds outstanding confirmation tokens.
	ConfirmLedgerSize int `koanf:"confirm_ledger_size"`

	// StoreDriver is one of memory, file, sqlite, postgres, redis.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the directory, file, connection string or address.
	StoreDSN string `koanf:"store_dsn"`

	// StoreNamespace prefixes every key so deployments can share a backend.
	StoreNamespace string `koanf:"store_namespace"`

	// DocumentKey is the key the state document is stored under.
	DocumentKey string `koanf:"document_key"`

	// RedisDB selects the redis logical database.
	RedisDB int `koanf:"redis_db"`

	// CookieSecure marks the voter and admin cookies Secure.
	CookieSecure bool `koanf:"cookie_secure"`
}

// DefaultRoster is the contestant list of the first deployment.
var DefaultRoster = []string{
	"Chow Peerapon", "Diow Tanawat", "First Sittiwit", "Gain Rachavit",
	"Gift Panpaphanan", "Gift Pornpatch", "Ice Chatdaroon", "Krit Suppawit",
	"Va Tunva", "Gna Jasmin", "Iryn Sutha", "Jane Janejira",
	"Kan Patarakan", "Nas Patranit", "Ping Tanaboon", "Puynun Kitsadaporn",
	"Thoongpaeng Thanawan", "Title Nonthawat", "Waan Chonticha", "Aom Pitchakorn",
	"Arm Boonyawat", "Arnold Teerawat", "Benz Jiraphat", "Giffarine Pattarada",
	"Nad Tanin", "Petch Thanarut", "Prem Prem", "Ran Saran",
	"Gift Phasa", "Jan Sutamma", "Joey Puwanai", "Many Asama",
	"Nampueng", "Nook Monraedee", "P.Fhon Patteera", "Ticha Ticha",
	"Toey Thanawat", "Baimee Phatsarin", "Cheese Kantika", "Fendee Thanarin",
	"Kratae Ratchaneewan", "Name Pannatorn", "Palm Piyawat", "Tangmo Piyapat",
	"Toeyhorm Niratchaporn", "Whan Pichanan", "Ake Suppanat", "Baisri Pitchayaphon",
	"Champ Chayutpong", "Dew Sirada", "Grip Thanabut", "Hun Tuanhannan",
	"Namkhing Siripat", "Tum Thaweewat",
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		AdminSecret:       "admin123",
		Rounds:            []string{"day1", "day2", "day3"},
		Roster:            slices.Clone(DefaultRoster),
		BallotSize:        3,
		LeaderboardSize:   5,
		QueueSize:         1024,
		ConfirmLedgerSize: 64,
		StoreDriver:       kvstore.DriverFile,
		StoreDSN:          "data",
		DocumentKey:       "state",
	}
}
