package main

import (
	"github.com/joho/godotenv"

	"github.com/poco-ai/poco-console/cli"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
