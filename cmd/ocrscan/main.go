package main

import (
	"os"

	"github.com/ocr-scanner/backend/cmd/ocrscan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
