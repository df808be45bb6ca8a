// ABOUTME: Entry point for the ppiembed binary.
// ABOUTME: Executes the root Cobra command and exits 2 on any failure.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
