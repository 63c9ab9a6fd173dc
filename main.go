package main

import (
	"os"

	"github.com/conneroisu/a11ytabs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
