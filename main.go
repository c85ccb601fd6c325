// The main package for the archivist executable.
package main

import (
	"github.com/JakeFAU/archivist/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
