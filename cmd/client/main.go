package main

import (
	"context"
	"os"

	"github.com/D-Abramoc/chatrelay/internal/buildinfo"
	"github.com/D-Abramoc/chatrelay/internal/client/cli"
	"github.com/D-Abramoc/chatrelay/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	app.Run(ctx)

}
