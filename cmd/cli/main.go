package main

import (
	"context"
	"log"
	"os"

	"github.com/StepanDemidovets/taskflow/internal/buildinfo"
	"github.com/StepanDemidovets/taskflow/internal/client/cli"
	"github.com/StepanDemidovets/taskflow/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
