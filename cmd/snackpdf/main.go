package main

import (
	"fmt"
	"os"

	"github.com/snackpdf/converter/internal/commands"
)

// Version is set during build
var Version = "dev"

func main() {
	if err := commands.NewApp(Version).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
