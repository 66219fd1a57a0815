// Package main is the entry point for the Graphwatch CLI application.
// It runs GraphQL and Postgres queries and keeps live views of their results.
package main

import (
	"graphwatch/cli/cmd"
)

// main is the entry point for the Graphwatch CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
