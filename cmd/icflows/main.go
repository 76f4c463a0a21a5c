package main

import (
	"os"

	"github.com/hashicorp-forge/icflows/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
