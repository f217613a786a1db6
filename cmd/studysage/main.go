package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Epistemic-Technology/studysage/cmd/studysage/commands"
)

func main() {
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
