// Command soundmeter runs the real-time sound level meter CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ambiosense/soundmeter/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
