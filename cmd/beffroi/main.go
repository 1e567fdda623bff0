// Command beffroi runs the town hall staff intranet.
package main

import (
	"os"

	"github.com/beffroi/beffroi/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
