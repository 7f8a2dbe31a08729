package main

import (
	"fmt"
	"os"

	peekcmder "github.com/peekproxy/peek/cmd/peek"
)

func main() {
	cmd := peekcmder.NewPeekCmd()

	err := cmd.Execute()
	if err != nil {
		fmt.Printf("Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
