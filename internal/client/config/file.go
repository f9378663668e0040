package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// readFile merges the file named by -c/--config, or STOREFRONT_CONFIG, into v.
// The format follows the extension. Keys mirror the dotted config keys:
//
//	{"server": {"url": "http://shop:8080"}, "mutation": {"timeout": "3s"}}
func readFile(v *viper.Viper, fs *pflag.FlagSet) error {
	path, _ := fs.GetString("config")
	if path == "" {
		path = v.GetString("config")
	}
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}
