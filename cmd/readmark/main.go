package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/readmark/readmark/internal/app"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ readmark failed to start: %v", err)
	}
}
