// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"graphwatch/cli/internal/logging"
	"graphwatch/cli/internal/query"
	"graphwatch/cli/internal/render"
	"graphwatch/cli/internal/session"
)

var (
	queryTimeout time.Duration
	queryOutput  string
)

// queryCmd runs one session and prints the last payload it published.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the query once and print the result",
	Long: `The query command runs the configured query document against the endpoint and
prints the result when the session ends. Streaming results (subscriptions, @live queries,
Postgres LISTEN channels) are followed until --timeout, after which the latest result
is printed.

Variables are passed with --var name=value; values that parse as JSON keep their type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch queryOutput {
		case "table", "json":
		default:
			return fmt.Errorf("unknown output format %q (want table or json)", queryOutput)
		}

		rt, err := setup()
		if err != nil {
			return err
		}

		sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// Sessions get their own context so Ctrl-C deactivates before aborting.
		sessCtx, cancelSess := context.WithCancel(cmd.Context())
		defer cancelSess()

		p, err := openPipeline(sessCtx, rt)
		if err != nil {
			pterm.Println(logging.PresentError("Could not reach the endpoint", err))
			return err
		}
		defer p.Close()

		latest := session.NewLatest()
		s, err := session.NewGuard(p.consumer).Activate(sessCtx, p.request, latest)
		if err != nil {
			return err
		}

		stopSpinner := startInlineSpinner(os.Stderr, "running query", stickFrames, 100*time.Millisecond)
		waitCtx, cancelWait := context.WithTimeout(sigCtx, queryTimeout)
		waitErr := s.Wait(waitCtx)
		cancelWait()
		stopSpinner()

		if waitErr != nil {
			// Timed out or interrupted: keep what arrived so far.
			s.Deactivate()
			cancelSess()
			rt.log.Debug("session stopped before it ended", "session", s.ID(), "reason", waitErr)
		}

		if f, ok := p.reporter.Last(s.ID()); ok {
			logging.PresentStreamError(f.Err)
			if payload, ok := latest.Load(); ok {
				printPayload(payload)
			}
			return f.Err
		}

		payload, ok := latest.Load()
		if !ok {
			if errors.Is(waitErr, context.DeadlineExceeded) {
				return fmt.Errorf("no result within %s", queryTimeout)
			}
			pterm.Println("No result received.")
			return nil
		}
		return printPayload(payload)
	},
}

func printPayload(p query.Payload) error {
	if queryOutput == "json" {
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	pterm.Println(render.Body(render.Build(p)))
	return nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 30*time.Second, "How long to wait for the session to end")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "table", "Output format: table or json")
}
