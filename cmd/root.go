// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Graphwatch CLI application.
// It implements subcommands that run a query against a data service once or keep
// a live view of its result, plus commands that manage credentials and sources.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "graphwatch",
	Short: "Graphwatch CLI for watching GraphQL and Postgres query results",
	Long: `Graphwatch runs a query against a data service and shows its result. The service
is a GraphQL endpoint reached over gRPC or HTTP, or a Postgres database queried directly.
Subscriptions, @live queries and Postgres LISTEN channels keep the view up to date.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("graphwatch %s\n", Version)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.endpoint, "endpoint", "", "Data service endpoint (grpc://, grpcs://, http://, https://, postgres://)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVarP(&flags.queryFile, "query-file", "f", "", "Read the query document from a file")
	pf.StringVar(&flags.operation, "operation", "", "Operation to run when the document has several")
	pf.StringArrayVar(&flags.vars, "var", nil, "Query variable as name=value; JSON values are decoded (repeatable)")
	pf.StringVar(&flags.listen, "listen", "", "Postgres channel whose notifications re-run the query")
}
