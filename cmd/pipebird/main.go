package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mintlify/pipebird-showcase/internal/cli"
	"github.com/mintlify/pipebird-showcase/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := cli.NewRootCmd()
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
