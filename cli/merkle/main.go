package main

import (
	"log"

	"github.com/jrhy/merkle/cli"
)

func main() {
	if err := cli.Init(); err != nil {
		log.Fatalf("failed to initialize merkle: %v", err)
	}

	cli.Execute()
}
