package main

import (
	"os"

	"github.com/polecat-sh/polecat/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
