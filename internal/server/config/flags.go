package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "STOREFRONT"

const (
	keyHTTPAddr           = "http.addr"
	keyDatabaseDSN        = "database.dsn"
	keySecretKey          = "auth.secret"
	keyTokenTTL           = "auth.ttl"
	keyMaxQuantity        = "cart.max_quantity"
	keySettlementInterval = "settlement.interval"
	keySettlementBatch    = "settlement.batch"
	keySettlementSuccess  = "settlement.success_rate"
	keyRateLimitRPS       = "ratelimit.rps"
	keyRateLimitBurst     = "ratelimit.burst"
	keyS3AccessKey        = "s3.access_key"
	keyS3SecretKey        = "s3.secret_key"
	keyS3Bucket           = "s3.bucket"
	keyS3Region           = "s3.region"
	keyS3Endpoint         = "s3.endpoint"
	keyPresignTTL         = "s3.presign_ttl"
	keyLogEnv             = "log.env"
	keyLogLevel           = "log.level"
	keyVersion            = "version"
)

// parseFlags parses args and returns a viper instance with defaults, flags and
// the environment bound.
//
// Supported flags:
//
//	-a, --http-addr string    HTTP bind address
//	-d, --database-dsn string PostgreSQL DSN
//	-s, --secret string       JWT signing secret
//	-t, --token-ttl duration  bearer token lifetime
//	-c, --config string       JSON or YAML config file
//	    --max-quantity, --settlement-interval, --settlement-batch,
//	    --settlement-success-rate, --rate-limit-rps, --rate-limit-burst,
//	    --s3-access-key, --s3-secret-key, --s3-bucket, --s3-region,
//	    --s3-endpoint, --presign-ttl, --log-env, --log-level, --version
func parseFlags(args []string) (*viper.Viper, *pflag.FlagSet, error) {
	var d Config
	d.LoadDefaults()

	fs := pflag.NewFlagSet("storefront-server", pflag.ContinueOnError)
	fs.StringP("http-addr", "a", d.HTTPAddr, "HTTP bind address")
	fs.StringP("database-dsn", "d", d.DatabaseDSN, "PostgreSQL DSN")
	fs.StringP("secret", "s", d.SecretKey, "JWT signing secret")
	fs.DurationP("token-ttl", "t", d.TokenTTL, "bearer token lifetime")
	fs.StringP("config", "c", "", "path to a JSON or YAML config file")
	fs.Int("max-quantity", d.MaxQuantity, "maximum quantity of one article in a cart")
	fs.Duration("settlement-interval", d.SettlementInterval, "order settlement poll interval")
	fs.Int("settlement-batch", d.SettlementBatch, "orders settled per poll")
	fs.Float64("settlement-success-rate", d.SettlementSuccessRate, "probability that a funded payment succeeds")
	fs.Float64("rate-limit-rps", d.RateLimitRPS, "cart changes per second per user")
	fs.Int("rate-limit-burst", d.RateLimitBurst, "cart change burst per user")
	fs.String("s3-access-key", d.S3AccessKey, "S3 access key")
	fs.String("s3-secret-key", d.S3SecretKey, "S3 secret key")
	fs.String("s3-bucket", d.S3Bucket, "S3 bucket for product images")
	fs.String("s3-region", d.S3Region, "S3 region")
	fs.String("s3-endpoint", d.S3BaseEndpoint, "S3 endpoint, empty for AWS")
	fs.Duration("presign-ttl", d.PresignTTL, "presigned URL lifetime")
	fs.String("log-env", d.LogEnv, "development for console logs, otherwise JSON")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	bindings := map[string]string{
		keyHTTPAddr:           "http-addr",
		keyDatabaseDSN:        "database-dsn",
		keySecretKey:          "secret",
		keyTokenTTL:           "token-ttl",
		keyMaxQuantity:        "max-quantity",
		keySettlementInterval: "settlement-interval",
		keySettlementBatch:    "settlement-batch",
		keySettlementSuccess:  "settlement-success-rate",
		keyRateLimitRPS:       "rate-limit-rps",
		keyRateLimitBurst:     "rate-limit-burst",
		keyS3AccessKey:        "s3-access-key",
		keyS3SecretKey:        "s3-secret-key",
		keyS3Bucket:           "s3-bucket",
		keyS3Region:           "s3-region",
		keyS3Endpoint:         "s3-endpoint",
		keyPresignTTL:         "presign-ttl",
		keyLogEnv:             "log-env",
		keyLogLevel:           "log-level",
		keyVersion:            "version",
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
