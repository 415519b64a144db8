package main

import (
	"os"

	"esmigrate/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
