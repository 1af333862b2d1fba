// Command factorec-bench scores a synthetic item catalog with factorec and
// prints the top-N candidates together with scan statistics.
package main

import (
	"context"
	"fmt"
	"os"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	if err := NewRootCmd(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "factorec-bench: %v\n", err)
		os.Exit(1)
	}
}
