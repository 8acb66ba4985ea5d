// The main package for the scout executable.
package main

import (
	"github.com/Morningbriefrezi/New-Products-Bot/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
