// Command casenotify runs the desktop notification controller and talks to
// a running instance.
package main

import (
	"os"
)

func main() {
	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	root := newRootCommand(wiring)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
