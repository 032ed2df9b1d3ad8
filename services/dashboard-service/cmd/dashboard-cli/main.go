// Command dashboard-cli prints Command Center and Owner Dashboard snapshots
// straight from the database, without going through the HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
