package main

import (
	"os"

	"roster-reconciliation-service/cmd/rosterrecon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		handler := cmd.NewCLIErrorHandler()
		os.Exit(handler.Handle(err))
	}
}
