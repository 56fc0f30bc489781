// Command cli is the interactive client for the document chat backend.
package main

import (
	"context"
	"log"
	"os"

	"github.com/Grupo-Cloud/frontend/internal/buildinfo"
	"github.com/Grupo-Cloud/frontend/internal/client/cli"
	"github.com/Grupo-Cloud/frontend/internal/client/config"
	"github.com/Grupo-Cloud/frontend/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
