package main

import (
	"fmt"
	"os"

	"paytrack/internal/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "paytrack: %v\n", err)
		os.Exit(1)
	}
}
