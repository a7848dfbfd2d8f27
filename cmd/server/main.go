package main

import (
	"context"
	"log"

	"github.com/D-Abramoc/chatrelay/internal/server"
)

func main() {

	ctx := context.Background()
	app, err := server.NewApp()

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
