// Package config loads runtime configuration for the storefront CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c/--config or STOREFRONT_CONFIG.
//  3. Environment variables: STOREFRONT_ plus the upper-cased key with dots
//     replaced by underscores, e.g. STOREFRONT_MUTATION_TIMEOUT.
//  4. Command-line flags, which override everything else.
//
// # File schema
//
// Durations are strings like "3s":
//
//	server:
//	  url: http://127.0.0.1:8080
//	verify:
//	  interval: 10s
//	mutation:
//	  timeout: 5s
//	  ordering: sequence
//	  optimistic_badge: false
//
// Primary API
//
//   - type Config                       holds all client settings
//   - func Load(args) (*Config, error)  applies defaults, file, env, then flags
//   - func LoadConfig() *Config         Load over os.Args, panicking on error
package config
