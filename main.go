package main

import (
	"embed"
	"os"

	"github.com/haveachin/slping/cmd"
)

//go:embed configs
var files embed.FS

var version = "dev"

func main() {
	if err := cmd.Execute(files, version); err != nil {
		os.Exit(1)
	}
}
