// FILE: src/cmd/pgmoneta-mcp-admin/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"pgmoneta-mcp/src/cmd/pgmoneta-mcp-admin/commands"
)

func main() {
	router := commands.NewCommandRouter()

	if err := router.Route(os.Args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
