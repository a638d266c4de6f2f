package main

import (
	"os"

	"focusflow/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
