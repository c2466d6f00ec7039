// Command sessiond serves the session and credential lifecycle API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/sessiond/internal/auth/app"
)

func main() {
	showVersion := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.BuildVersion)
		return
	}

	os.Exit(run())
}

func run() int {
	cfg := app.LoadConfig()

	// app.New installs the configured logger as slog's default before it
	// can fail, so startup errors come out in the same format.
	application, err := app.New(cfg)
	if err != nil {
		slog.Error("sessiond failed to start", "err", err)
		return 1
	}

	if err := application.Run(); err != nil {
		slog.Error("sessiond stopped with error", "err", err)
		return 1
	}
	return 0
}
