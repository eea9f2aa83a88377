package main

import (
	"os"

	"github.com/gyeh/rx340b/internal/exitcode"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
