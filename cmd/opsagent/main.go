package main

import (
	"os"

	"github.com/rahul/opsagent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
