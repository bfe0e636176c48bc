// Command icodeguard is the entry point for the file and process
// integrity verification engine.
package main

import (
	"fmt"
	"os"

	"github.com/icodeguard/icodeguard/internal/cli"
)

func main() {
	app := cli.NewCLI()
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "icodeguard: %v\n", err)
		os.Exit(1)
	}
}
