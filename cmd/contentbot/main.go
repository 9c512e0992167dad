package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/contentbot/bot"
	corecmd "github.com/m3rciful/contentbot/core/cmd"
)

func main() {
	// Missing .env is fine in containers where env comes from the runtime.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("contentbot: %v", err)
	}
}
