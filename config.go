/*
Package main
File: config.go
Description: Process configuration. Viper merges the built-in defaults,
an optional diveplan.yaml and DIVEPLAN_* environment variables.
*/

package main

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds everything main needs to wire the process together.
type ServerConfig struct {
	Addr         string // HTTP listen address
	DatabasePath string // SQLite file for the dive log
	ModelPath    string // optional YAML overriding the decompression model
}

// loadServerConfig resolves configuration in precedence order:
// environment variables, then the config file, then defaults. A missing
// config file is fine; a malformed one is not.
func loadServerConfig() (ServerConfig, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8081")
	v.SetDefault("database.path", "diveplan.db")
	v.SetDefault("model.path", "")

	v.SetConfigName("diveplan")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/diveplan")

	v.SetEnvPrefix("DIVEPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return ServerConfig{}, err
		}
	}

	return ServerConfig{
		Addr:         v.GetString("server.addr"),
		DatabasePath: v.GetString("database.path"),
		ModelPath:    v.GetString("model.path"),
	}, nil
}
