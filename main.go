package main

import (
	"os"

	"bmc_collect/presentation/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
