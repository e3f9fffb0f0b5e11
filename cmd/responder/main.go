package main

import (
	"fmt"
	"os"

	"github.com/fouedh91760/a-level-saver-sub001/cmd/responder/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
