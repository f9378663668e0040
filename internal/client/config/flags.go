package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "STOREFRONT"

const (
	keyServerURL       = "server.url"
	keyTokenDB         = "token.db"
	keyLogFile         = "log.file"
	keyLogLevel        = "log.level"
	keyVerifyInterval  = "verify.interval"
	keyMutationTimeout = "mutation.timeout"
	keyOrdering        = "mutation.ordering"
	keyOptimisticBadge = "mutation.optimistic_badge"
	keyBackoffAttempts = "backoff.attempts"
	keyBackoffBase     = "backoff.base"
	keyVersion         = "version"
)

// parseFlags parses args and returns a viper instance with defaults, flags and
// the environment bound.
//
// Supported flags:
//
//	-a, --server-url string        backend base URL
//	-i, --verify-interval duration session re-verification interval
//	-c, --config string            JSON or YAML config file
//	    --token-db, --log-file, --log-level, --mutation-timeout,
//	    --ordering, --optimistic-badge, --backoff-attempts, --backoff-base
//	    --version
func parseFlags(args []string) (*viper.Viper, *pflag.FlagSet, error) {
	var d Config
	d.LoadDefaults()

	fs := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	fs.StringP("server-url", "a", d.ServerURL, "backend base URL")
	fs.StringP("config", "c", "", "path to a JSON or YAML config file")
	fs.String("token-db", d.TokenDBPath, "SQLite file for the session token")
	fs.String("log-file", d.LogFile, "log file, empty for stderr")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.DurationP("verify-interval", "i", d.VerifyInterval, "session verification interval")
	fs.Duration("mutation-timeout", d.MutationTimeout, "timeout of a single cart change")
	fs.String("ordering", string(d.Ordering), "cart change ordering: sequence or serialize")
	fs.Bool("optimistic-badge", d.OptimisticBadge, "update the cart badge before the server replies")
	fs.Uint64("backoff-attempts", d.BackoffAttempts, "session verification retries")
	fs.Duration("backoff-base", d.BackoffBase, "initial verification retry delay")
	fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	bindings := map[string]string{
		keyServerURL:       "server-url",
		keyTokenDB:         "token-db",
		keyLogFile:         "log-file",
		keyLogLevel:        "log-level",
		keyVerifyInterval:  "verify-interval",
		keyMutationTimeout: "mutation-timeout",
		keyOrdering:        "ordering",
		keyOptimisticBadge: "optimistic-badge",
		keyBackoffAttempts: "backoff-attempts",
		keyBackoffBase:     "backoff-base",
		keyVersion:         "version",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, nil, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, fs, nil
}
