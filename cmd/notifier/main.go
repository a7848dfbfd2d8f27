package main

import (
	"context"
	"log"

	"github.com/D-Abramoc/chatrelay/internal/notifier"
)

func main() {

	ctx := context.Background()
	app := notifier.NewApp()

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
