package main

import (
	"os"

	"github.com/homebardev/homebar/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
