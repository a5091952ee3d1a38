// Command joinery builds SQL SELECT statements from a CUE schema of views
// and the relations between them.
//
// Usage:
//
//	joinery build <queries.yaml> [query...]   # Print the SQL of each query
//	joinery validate <queries.yaml>           # Check a document without building
//	joinery check <queries.yaml>              # Prepare statements against the schema
//	joinery test [scenarios-dir]              # Run conformance scenarios
//	joinery history [query]                   # List statements saved with build --save
//
// Defaults for --schema, --dialect and --catalog come from joinery.yaml,
// found by walking up from the working directory, or from JOINERY_*
// environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/joinery/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
