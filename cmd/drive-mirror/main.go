package main

import (
	"os"

	"github.com/bianoble/drive-mirror/cmd/drive-mirror/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
