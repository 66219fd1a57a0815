// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"graphwatch/cli/internal/endpoint"
	"graphwatch/cli/internal/query"
)

// sourceinfoCmd shows which endpoint and query the other commands would use.
var sourceinfoCmd = &cobra.Command{
	Use:     "sourceinfo",
	Aliases: []string{"dbinfo"},
	Short:   "Show the configured endpoint with secrets masked",
	Long: `The sourceinfo command displays the endpoint query and watch would connect to, where
that setting came from, whether an API token is available and which query document runs.
Passwords and tokens are masked.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}

		tgt, err := resolveTarget(rt.cfg, flags.endpoint, os.Getenv, keychainDSN)
		if err != nil {
			return err
		}
		ep, err := endpoint.Parse(tgt.raw)
		if err != nil {
			pterm.Println("❌ " + err.Error())
			return err
		}

		_, tokenOrigin := resolveToken(rt.log)
		if tokenOrigin == "" {
			tokenOrigin = "none (run 'graphwatch login')"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Endpoint:  %s\n", ep)
		fmt.Fprintf(&b, "Transport: %s\n", ep.Kind)
		fmt.Fprintf(&b, "From:      %s\n", tgt.origin)
		if ep.Kind == endpoint.KindPostgres {
			listen := rt.cfg.Source.ListenChannel
			if listen == "" {
				listen = "none (snapshot queries)"
			}
			fmt.Fprintf(&b, "Listen:    %s\n", listen)
		} else {
			fmt.Fprintf(&b, "Token:     %s\n", tokenOrigin)
		}
		fmt.Fprintf(&b, "Query:     %s", describeQuery(rt.cfg.Query.File, rt.cfg.Query.Document))

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Data Source")).
			WithPadding(1).
			Println(b.String())
		pterm.Println()
		pterm.Println("To use a Postgres source, run: graphwatch connect")
		pterm.Println()
		return nil
	},
}

func describeQuery(file, document string) string {
	switch {
	case file != "":
		return file
	case document != "" && document != query.DefaultDocument:
		return "inline document from config"
	default:
		return "built-in swaps query"
	}
}

func init() {
	rootCmd.AddCommand(sourceinfoCmd)
}
