package main

import (
	"context"
	"log"
	"os"

	"backend/cmd"

	"github.com/joho/godotenv"
)

// make version a variable so the build system can inject it
var version = "unknown"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	runCmd := cmd.ServerCli()
	runCmd.Version = version

	if err := runCmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
