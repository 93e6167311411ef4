// Package config loads the YAML configuration for the server and client
// binaries, replacing the teacher's hardcoded DefaultConfig with a file
// the operator can edit (listen/connect address, tick rate, channel
// timeouts). Decoding uses gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures a standalone or embedded-host server.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	MaxPlayers      int           `yaml:"max_players"`
	TickRate        int           `yaml:"tick_rate"`
	ResendTimeout   time.Duration `yaml:"resend_timeout"`
	ChannelCeiling  int           `yaml:"channel_memory_ceiling_bytes"`
	MetricsHTTPAddr string        `yaml:"metrics_http_addr"`
}

// DefaultServerConfig mirrors the teacher's DefaultConfig values, extended
// with the new transport/metrics knobs.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:      ":7777",
		MaxPlayers:      4,
		TickRate:        60,
		ResendTimeout:   300 * time.Millisecond,
		ChannelCeiling:  5 * 1024 * 1024,
		MetricsHTTPAddr: "",
	}
}

// ClientConfig configures a client connecting to a server.
type ClientConfig struct {
	ServerAddr     string        `yaml:"server_addr"`
	PlayerName     string        `yaml:"player_name"`
	TickRate       int           `yaml:"tick_rate"`
	ResendTimeout  time.Duration `yaml:"resend_timeout"`
	ChannelCeiling int           `yaml:"channel_memory_ceiling_bytes"`
}

// DefaultClientConfig returns sensible client defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServerAddr:     "127.0.0.1:7777",
		PlayerName:     "player",
		TickRate:       60,
		ResendTimeout:  300 * time.Millisecond,
		ChannelCeiling: 5 * 1024 * 1024,
	}
}

// LoadServerConfig reads and decodes a ServerConfig from path, starting
// from DefaultServerConfig so an omitted field keeps its default.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := decodeFile(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClientConfig reads and decodes a ClientConfig from path, starting
// from DefaultClientConfig so an omitted field keeps its default.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := decodeFile(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func decodeFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}
