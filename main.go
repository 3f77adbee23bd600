package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/brogergvhs/flamed/cmd"
)

func main() {
	cmd.Execute()
}
