// Command helpbuild builds Sandcastle documentation
package main

import (
	"fmt"
	"os"

	"github.com/sandcastle-helpers/helpbuild/pkg/cli"
)

var version = "dev"

func main() {
	if err := cli.ExecuteWithVersion(version); err != nil {
		fmt.Fprintf(os.Stderr, "helpbuild: %v\n", err)
		os.Exit(1)
	}
}
