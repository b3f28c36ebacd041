// Command nodeedit views and edits one node of a JSON or YAML document
// addressed by a path.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, "nodeedit:", err)
		}
		os.Exit(1)
	}
}
