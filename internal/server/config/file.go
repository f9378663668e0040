package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// readFile merges the file named by -c/--config, or STOREFRONT_CONFIG, into v.
//
//	{"http": {"addr": ":9090"}, "settlement": {"success_rate": 0.9}}
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
