// Package config merges the optional .edulint.yaml file, EDULINT_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Name is the config file base name searched for in the working and home
// directories.
const Name = ".edulint"

// Config holds every setting a command may read. Keys match flag names.
type Config struct {
	Catalog      string        `mapstructure:"catalog"`
	CatalogFile  string        `mapstructure:"catalog-file"`
	Rules        string        `mapstructure:"rules"`
	Enable       []string      `mapstructure:"enable"`
	Disable      []string      `mapstructure:"disable"`
	Analyzer     string        `mapstructure:"analyzer"`
	Format       string        `mapstructure:"format"`
	FailOn       string        `mapstructure:"fail-on"`
	MatchTimeout time.Duration `mapstructure:"match-timeout"`
	Redact       bool          `mapstructure:"redact"`
	Color        string        `mapstructure:"color"`
	Addr         string        `mapstructure:"addr"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("catalog", "games")
	v.SetDefault("catalog-file", "")
	v.SetDefault("rules", "")
	v.SetDefault("enable", []string{})
	v.SetDefault("disable", []string{})
	v.SetDefault("analyzer", "builtin")
	v.SetDefault("format", "text")
	v.SetDefault("fail-on", "")
	v.SetDefault("match-timeout", time.Duration(0))
	v.SetDefault("redact", false)
	v.SetDefault("color", "auto")
	v.SetDefault("addr", "127.0.0.1:8080")
}

// Load reads configuration. An explicit path must exist; without one a
// missing .edulint.yaml is not an error. Flags that were set on the
// command line win over the environment, which wins over the file.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	defaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("EDULINT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config.Load: bind flags: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	c.File = v.ConfigFileUsed()
	return &c, nil
}
