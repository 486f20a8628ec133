package main

import (
	"os"

	"github.com/restated-dev/restated/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
