package main

import (
	"os"

	"github.com/SamuelPereira26/Finhouse/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
