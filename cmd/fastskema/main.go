// Command fastskema validates JSON or YAML documents against schema
// descriptors, exports descriptors as JSON Schema and profiles them.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errInvalid) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "fastskema:", err)
		os.Exit(2)
	}
}
