package main

import (
	"os"

	"github.com/BeliaevAndrey/vibeBot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
