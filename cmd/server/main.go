// Command server runs the local development backend for the chat CLI.
//
//	server -a 127.0.0.1:8000 -t 1 -r 3 -u alice:secret
package main

import (
	"context"
	"log"
	"os"

	"github.com/Grupo-Cloud/frontend/internal/buildinfo"
	"github.com/Grupo-Cloud/frontend/internal/server"
	"github.com/Grupo-Cloud/frontend/internal/server/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
