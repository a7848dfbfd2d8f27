// Package cli implements the interactive terminal client for the chat relay.
package cli

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/D-Abramoc/chatrelay/internal/client/api"
	"github.com/D-Abramoc/chatrelay/internal/client/config"
)

type App struct {
	config *config.Config
	api    *api.Client
	token  string
	reader *bufio.Reader
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerAddr),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

// Root is the top-level command loop.
func (a *App) Root(ctx context.Context) {
	for {
		cmd, err := GetSimpleText(a.reader, "Command (register, login, chat, history, quit)", os.Stdout)
		if err != nil {
			log.Printf("error: %v", err)
			return
		}

		switch cmd {
		case "register":
			if err := a.Register(ctx); err != nil {
				log.Printf("error: %v", err)
			}
		case "login":
			if err := a.Login(ctx); err != nil {
				log.Printf("error: %v", err)
			}
		case "chat":
			if err := a.Chat(ctx); err != nil {
				log.Printf("error: %v", err)
			}
		case "history":
			if err := a.History(ctx); err != nil {
				log.Printf("error: %v", err)
			}
		case "quit", "exit":
			return
		default:
			log.Printf("unknown command: %s", cmd)
		}
	}
}
