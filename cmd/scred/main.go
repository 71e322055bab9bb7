package main

import (
	"os"

	"scred/cmd/scred/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
