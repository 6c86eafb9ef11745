package main

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

// Config is the client configuration, read from the environment with
// flag overrides.
type Config struct {
	// ServerURL is the game server API root.
	ServerURL string `env:"PBBG_SERVER_URL" envDefault:"http://localhost:5000"`
	// SocketURL is the push-channel endpoint. Derived from ServerURL
	// when empty.
	SocketURL string `env:"PBBG_SOCKET_URL"`
	Username  string `env:"PBBG_USERNAME"`
	Password  string `env:"PBBG_PASSWORD"`
	LogLevel  string `env:"PBBG_LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"PBBG_LOG_FILE"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %v", err)
	}
	return cfg, nil
}

// ResolveSocketURL returns the push-channel endpoint, deriving it from
// the server URL when not configured explicitly.
func (c *Config) ResolveSocketURL() (string, error) {
	if c.SocketURL != "" {
		return c.SocketURL, nil
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse server URL: %v", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}
