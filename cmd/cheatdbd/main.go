// Command cheatdbd runs the cheatdb HTTP daemon with the default config.
package main

import (
	"context"
	"flag"
	"log"

	"cheatdb/internal/config"
	"cheatdb/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		log.Fatalf("cheatdbd: %v", err)
	}
}
