// Package config loads the optional TOML configuration file for the web
// server. The CLI generate command takes everything from flags and needs no
// config file.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/listgraph/listgraph/pkg/errors"
	"github.com/listgraph/listgraph/pkg/graphapi"
	"github.com/listgraph/listgraph/pkg/session"
)

// Server holds web server settings.
//
// Example config file:
//
//	[server]
//	addr = ":8080"
//	output_dir = "diagrams"
//	session_ttl = "2h"
//
//	[graph]
//	base_url = "https://graph.microsoft.com/v1.0"
//
//	[redis]
//	addr = "localhost:6379"
type Server struct {
	Addr       string   `toml:"addr"`
	OutputDir  string   `toml:"output_dir"`
	SessionTTL duration `toml:"session_ttl"`
}

// Graph holds upstream API settings.
type Graph struct {
	BaseURL string `toml:"base_url"`
}

// Redis holds the optional Redis session backend settings. An empty addr
// selects the in-memory store.
type Redis struct {
	Addr string `toml:"addr"`
}

// Config is the root of the TOML config file.
type Config struct {
	Server Server `toml:"server"`
	Graph  Graph  `toml:"graph"`
	Redis  Redis  `toml:"redis"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:       ":8080",
			OutputDir:  "diagrams",
			SessionTTL: duration(session.DefaultTTL),
		},
		Graph: Graph{BaseURL: graphapi.DefaultBaseURL},
	}
}

// Load reads a TOML config file and fills unset fields with defaults.
// An empty path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.OutputDir == "" {
		cfg.Server.OutputDir = "diagrams"
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = duration(session.DefaultTTL)
	}
	if cfg.Graph.BaseURL == "" {
		cfg.Graph.BaseURL = graphapi.DefaultBaseURL
	}
	return cfg, nil
}

// TTL returns the session TTL as a time.Duration.
func (s Server) TTL() time.Duration { return time.Duration(s.SessionTTL) }

// duration supports "2h" style strings in TOML.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}
