// Command wt is a two-role workflow tracker for tasks and defects.
package main

import (
	"os"
	"strings"

	"wt/internal/cli"
)

func main() {
	env := make(map[string]string)

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok {
			env[key] = value
		}
	}

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env))
}
