// Package config handles configuration for the notification worker.
package config

import (
	"flag"
	"os"

	"github.com/D-Abramoc/chatrelay/internal/flagx"
)

// Config holds runtime settings for the notification worker.
type Config struct {
	QueueURL            string
	Subject             string
	TelegramToken       string
	TelegramAPIEndpoint string
}

// LoadDefaults populates Config with development defaults. The Telegram token
// has no default and must be supplied.
func (c *Config) LoadDefaults() {
	c.QueueURL = "nats://127.0.0.1:4222"
	c.Subject = "notifications.send"
	c.TelegramToken = ""
	c.TelegramAPIEndpoint = "https://api.telegram.org"
}

// LoadConfig builds a Config by applying defaults and then command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)
	return cfg
}

// parseFlags populates selected worker Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-q string   NATS server URL
//	-n string   notification queue subject
//	-k string   Telegram bot token
//	-e string   Telegram API base endpoint
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-q", "-n", "-k", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.QueueURL, "q", config.QueueURL, "NATS server URL")
	fs.StringVar(&config.Subject, "n", config.Subject, "notification queue subject")
	fs.StringVar(&config.TelegramToken, "k", config.TelegramToken, "Telegram bot token")
	fs.StringVar(&config.TelegramAPIEndpoint, "e", config.TelegramAPIEndpoint, "Telegram API base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
