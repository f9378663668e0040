package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fzon/storefront/internal/client/cart"
)

// Config holds runtime settings for the storefront CLI.
//
// Fields:
//   - ServerURL: base URL of the storefront backend.
//   - TokenDBPath: SQLite file holding the persisted session token.
//   - LogFile, LogLevel: where and how verbosely the client logs.
//   - VerifyInterval: how often the background watcher re-verifies the session.
//   - MutationTimeout: deadline for a single cart change.
//   - Ordering: per-article ordering strategy for concurrent cart changes.
//   - OptimisticBadge: nudge the cart badge before the server replies.
//   - BackoffAttempts, BackoffBase: bounded retry of session verification.
type Config struct {
	ServerURL       string
	TokenDBPath     string
	LogFile         string
	LogLevel        string
	VerifyInterval  time.Duration
	MutationTimeout time.Duration
	Ordering        cart.Ordering
	OptimisticBadge bool
	BackoffAttempts uint64
	BackoffBase     time.Duration

	ShowVersion bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.TokenDBPath = "storefront.db"
	c.LogFile = "storefront.log"
	c.LogLevel = "info"
	c.VerifyInterval = 10 * time.Second
	c.MutationTimeout = 5 * time.Second
	c.Ordering = cart.OrderSequence
	c.OptimisticBadge = false
	c.BackoffAttempts = 3
	c.BackoffBase = 200 * time.Millisecond
}

// Load builds a Config from defaults, an optional config file, STOREFRONT_*
// environment variables and args, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	v, fs, err := parseFlags(args)
	if err != nil {
		return nil, err
	}
	if err := readFile(v, fs); err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerURL:       v.GetString(keyServerURL),
		TokenDBPath:     v.GetString(keyTokenDB),
		LogFile:         v.GetString(keyLogFile),
		LogLevel:        v.GetString(keyLogLevel),
		VerifyInterval:  v.GetDuration(keyVerifyInterval),
		MutationTimeout: v.GetDuration(keyMutationTimeout),
		OptimisticBadge: v.GetBool(keyOptimisticBadge),
		BackoffAttempts: v.GetUint64(keyBackoffAttempts),
		BackoffBase:     v.GetDuration(keyBackoffBase),
		ShowVersion:     v.GetBool(keyVersion),
	}

	if cfg.Ordering, err = cart.ParseOrdering(v.GetString(keyOrdering)); err != nil {
		return nil, err
	}
	if cfg.VerifyInterval <= 0 || cfg.MutationTimeout <= 0 {
		return nil, fmt.Errorf("verify interval and mutation timeout must be positive")
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on invalid input.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
