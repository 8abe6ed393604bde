package main

import (
	"os"

	"github.com/flotacoop/fleetcore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
