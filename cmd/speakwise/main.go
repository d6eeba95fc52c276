package main

import (
	"os"

	"github.com/yoonlab/speakwise/cmd/speakwise/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
