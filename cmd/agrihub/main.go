package main

import (
	"fmt"
	"os"

	"github.com/HGakash/agrihub/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agrihub: %v\n", err)
		os.Exit(1)
	}
}
