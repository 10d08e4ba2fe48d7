// Command stanza parses a .stanza program, runs it against a source
// file in a supported language, and reports or persists the resulting
// graph.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
