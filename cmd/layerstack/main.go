package main

import (
	"log/slog"
	"os"

	"github.com/layerkit/layerstack/internal/cli"
)

// main is the entrypoint for the layerstack application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	os.Exit(cli.Main())
}
