// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

var swapHeader = []string{"Amount0", "Amount1", "USD", "Token0", "Token1"}

// Status describes the session a view belongs to.
type Status struct {
	SessionID string
	Live      bool
	Failure   string
}

// Table renders the swap rows as a pterm table. An empty row set renders a
// placeholder line.
func Table(rows []SwapRow) string {
	if len(rows) == 0 {
		return pterm.FgGray.Sprint("No swaps.")
	}
	data := pterm.TableData{swapHeader}
	for _, r := range rows {
		data = append(data, []string{r.Amount0, r.Amount1, r.AmountUSD, r.Token0, r.Token1})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		// Table rendering only fails on writer errors; fall back to plain rows.
		var b strings.Builder
		for _, row := range data {
			b.WriteString(strings.Join(row, "  "))
			b.WriteByte('\n')
		}
		return strings.TrimRight(b.String(), "\n")
	}
	return strings.TrimRight(out, "\n")
}

// Body renders the content of v without the status line.
func Body(v View) string {
	var b strings.Builder
	if v.IsSwaps {
		b.WriteString(Table(v.Swaps))
	} else if v.JSON != "" {
		b.WriteString(v.JSON)
	}
	for _, msg := range v.Errors {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(pterm.FgRed.Sprint("✗ " + msg))
	}
	return b.String()
}

// StatusLine summarizes when v was received and which session produced it.
func StatusLine(v View, st Status, frame string) string {
	state := "ended"
	if st.Live {
		state = frame + " live"
	}
	parts := []string{state}
	if id := ShortID(st.SessionID); id != "" {
		parts = append(parts, "session "+id)
	}
	if !v.ReceivedAt.IsZero() {
		parts = append(parts, "updated "+v.ReceivedAt.Local().Format(time.TimeOnly))
	}
	if v.IsSwaps {
		parts = append(parts, fmt.Sprintf("%d swaps", len(v.Swaps)))
	}
	line := pterm.FgGray.Sprint(strings.Join(parts, " · "))
	if st.Failure != "" {
		line += "\n" + st.Failure
	}
	return line
}

// Frame renders a complete live-area frame.
func Frame(v View, st Status, frame string) string {
	body := Body(v)
	if body == "" {
		body = pterm.FgGray.Sprint("Waiting for data...")
	}
	return body + "\n\n" + StatusLine(v, st, frame)
}

// ShortID shortens a session id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
