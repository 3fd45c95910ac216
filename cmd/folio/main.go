package main

import (
	"fmt"
	"os"

	"github.com/pders01/folio/internal/debuglog"
)

// Version is the version of the application, set at build time
var Version = "dev"

func main() {
	err := newRootCmd().Execute()
	debuglog.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
