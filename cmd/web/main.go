// Command web serves the read-only query API over the loaded database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"ansanalytics/internal/app"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	rt, err := app.Bootstrap(*configFile, "web.log")
	if err != nil {
		slog.Error("Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rt.Close(context.Background())

	application, err := app.NewApplication(context.Background(), rt.Config, rt.Logger, rt.OTel)
	if err != nil {
		rt.Logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		_ = rt.Close(context.Background())
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		rt.Logger.Error("Application error", slog.String("error", err.Error()))
		_ = rt.Close(context.Background())
		os.Exit(1)
	}
}
