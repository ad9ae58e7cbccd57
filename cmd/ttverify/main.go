// Command ttverify checks time-triggered WSN schedules for flow latency
// and deadline misses.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ttverify/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
