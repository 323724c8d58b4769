package main

import (
	"os"

	"github.com/jwhan/contango/cmd/contango/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
