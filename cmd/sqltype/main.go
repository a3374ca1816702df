// Command sqltype infers SQL result and parameter types from a schema.
package main

import (
	"os"

	"github.com/leapstack-labs/sqltype/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
