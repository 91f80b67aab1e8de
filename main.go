package main

import (
	"os"

	"github.com/fairexam/fairexam/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
