package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"fjacquet/stmt-categorizer/cmd/categories"
	"fjacquet/stmt-categorizer/cmd/categorize"
	"fjacquet/stmt-categorizer/cmd/ingest"
	"fjacquet/stmt-categorizer/cmd/patterns"
	"fjacquet/stmt-categorizer/cmd/root"
	"fjacquet/stmt-categorizer/cmd/serve"
	"fjacquet/stmt-categorizer/internal/logging"
)

func init() {
	// 1. Load environment variables silently first (no logging yet)
	loadEnvSilently()

	// 2. Configure the process-wide log level before any logging happens
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logging.SetAllLogLevels(level)
	}

	// 3. Initialize root command
	root.Init()

	// 4. Add all subcommands
	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(categories.Cmd)
	root.Cmd.AddCommand(patterns.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

// loadEnvSilently loads environment variables without logging anything
func loadEnvSilently() {
	// Try to find .env file in current directory
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// Try to find .env in parent directory (project root)
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}

	// Load .env file silently without logging
	_ = godotenv.Load(envFile)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
