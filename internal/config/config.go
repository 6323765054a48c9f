// Package config assembles and validates a replica's bootstrap
// configuration from its CLI arguments. There is no on-disk config
// file in this protocol — the argument list is the source of truth —
// but, as the teacher's server/config.go does for its YAML file, the
// resolved configuration is still modeled as one validated struct and
// rendered through gopkg.in/yaml.v3 for the startup log line.
package config

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"kvraft/internal/codec"
)

// Config is a replica's fully resolved bootstrap configuration.
type Config struct {
	Port  int      `yaml:"port"`
	ID    string   `yaml:"id"`
	Peers []string `yaml:"peers"`
}

// ParseArgs parses the CLI form `kvstore <port> <id> <other-id>+` into
// a validated Config.
func ParseArgs(args []string) (Config, error) {
	if len(args) < 3 {
		return Config{}, fmt.Errorf("usage: kvstore <port> <id> <other-id>+")
	}

	port, err := strconv.Atoi(args[0])
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", args[0], err)
	}

	cfg := Config{Port: port, ID: args[1], Peers: args[2:]}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the replica cannot safely start
// with: a reserved id, duplicate peers, or a peer list containing the
// replica's own id.
func (c Config) Validate() error {
	if c.ID == codec.Broadcast {
		return fmt.Errorf("replica id %q is reserved for broadcast", codec.Broadcast)
	}

	if len(c.Peers) == 0 {
		return fmt.Errorf("at least one peer id is required")
	}

	seen := map[string]bool{c.ID: true}
	for _, p := range c.Peers {
		if p == codec.Broadcast {
			return fmt.Errorf("peer id %q is reserved for broadcast", codec.Broadcast)
		}
		if seen[p] {
			return fmt.Errorf("duplicate peer id %q", p)
		}
		seen[p] = true
	}

	return nil
}

// YAML renders the config for the human-readable startup banner.
func (c Config) YAML() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<config marshal error: %v>", err)
	}
	return string(data)
}
