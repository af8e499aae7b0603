package main

import (
	"os"

	"github.com/augusta-labs/incentive-matcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
