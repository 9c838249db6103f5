package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-atoms/internal/cli/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
