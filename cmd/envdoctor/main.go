package main

import (
	"os"

	"envdoctor/internal/cli"
)

// runMain executes the command line and returns the exit code.
func runMain() int {
	return cli.Execute()
}

func main() {
	exitCode := runMain()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
