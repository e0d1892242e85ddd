package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/blacktop/tootrelay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if errors.Is(err, cmd.ErrMissingConfig) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
