// Command assume runs CUE guest programs on the speculative runtime and
// inspects the stacks it captured.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/assume/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
