// Package config handles configuration for the terminal chat client.
package config

import (
	"flag"
	"os"

	"github.com/D-Abramoc/chatrelay/internal/flagx"
)

// Config holds runtime settings for the chat CLI.
//
// Fields:
//   - ServerAddr: base URL of the chat relay HTTP endpoint.
type Config struct {
	ServerAddr string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8000"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)
	return cfg
}

// parseFlags populates selected client Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   server base URL (e.g., "http://127.0.0.1:8000")
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerAddr, "a", config.ServerAddr, "server base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
