// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package render turns the latest query payload into terminal output.
//
// Payloads shaped like the swaps query ({"transactions": [{"swaps": [...]}]})
// become one table row per swap; anything else is shown as indented JSON.
package render

import (
	"bytes"
	"time"

	jsoniter "github.com/json-iterator/go"

	"graphwatch/cli/internal/query"
)

var (
	codec = jsoniter.ConfigCompatibleWithStandardLibrary
	// pretty keeps numbers verbatim when re-indenting arbitrary data.
	pretty = jsoniter.Config{SortMapKeys: true, UseNumber: true}.Froze()
)

// Fallbacks for missing fields.
const (
	MissingAmount = "N/A"
	MissingToken  = "Unknown"
)

// SwapRow is one swap in display form.
type SwapRow struct {
	Amount0   string
	Amount1   string
	AmountUSD string
	Token0    string
	Token1    string
}

// View is the display model of one payload.
type View struct {
	// Swaps is set when the payload has the swaps shape.
	Swaps   []SwapRow
	IsSwaps bool
	// JSON holds indented data for other shapes.
	JSON       string
	Errors     []string
	ReceivedAt time.Time
}

type tokenDoc struct {
	Name jsoniter.RawMessage `json:"name"`
}

type poolDoc struct {
	Token0 *tokenDoc `json:"token0"`
	Token1 *tokenDoc `json:"token1"`
}

type swapDoc struct {
	Amount0   jsoniter.RawMessage `json:"amount0"`
	Amount1   jsoniter.RawMessage `json:"amount1"`
	AmountUSD jsoniter.RawMessage `json:"amountUSD"`
	Pool      *poolDoc            `json:"pool"`
}

type transactionDoc struct {
	Swaps []*swapDoc `json:"swaps"`
}

type swapsDoc struct {
	Transactions *[]*transactionDoc `json:"transactions"`
}

// Build derives the view of p. Transactions and swaps keep their order; a
// null swap renders as a row of fallbacks.
func Build(p query.Payload) View {
	v := View{ReceivedAt: p.ReceivedAt}
	for _, e := range p.Errors {
		v.Errors = append(v.Errors, e.Message)
	}
	if len(p.Data) == 0 {
		return v
	}

	var doc swapsDoc
	if err := codec.Unmarshal(p.Data, &doc); err == nil && doc.Transactions != nil {
		v.IsSwaps = true
		for _, tx := range *doc.Transactions {
			if tx == nil {
				continue
			}
			for _, s := range tx.Swaps {
				v.Swaps = append(v.Swaps, swapRow(s))
			}
		}
		return v
	}

	var buf bytes.Buffer
	if err := jsonIndent(&buf, p.Data); err != nil {
		v.JSON = string(p.Data)
	} else {
		v.JSON = buf.String()
	}
	return v
}

func swapRow(s *swapDoc) SwapRow {
	row := SwapRow{
		Amount0:   MissingAmount,
		Amount1:   MissingAmount,
		AmountUSD: MissingAmount,
		Token0:    MissingToken,
		Token1:    MissingToken,
	}
	if s == nil {
		return row
	}
	row.Amount0 = scalar(s.Amount0, MissingAmount)
	row.Amount1 = scalar(s.Amount1, MissingAmount)
	row.AmountUSD = scalar(s.AmountUSD, MissingAmount)
	if s.Pool != nil {
		if s.Pool.Token0 != nil {
			row.Token0 = scalar(s.Pool.Token0.Name, MissingToken)
		}
		if s.Pool.Token1 != nil {
			row.Token1 = scalar(s.Pool.Token1.Name, MissingToken)
		}
	}
	return row
}

// scalar renders a JSON scalar; strings are unquoted, absent or null values
// yield fallback.
func scalar(raw jsoniter.RawMessage, fallback string) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fallback
	}
	if raw[0] == '"' {
		var s string
		if err := codec.Unmarshal(raw, &s); err != nil {
			return fallback
		}
		return s
	}
	return string(raw)
}

func jsonIndent(buf *bytes.Buffer, data []byte) error {
	var v any
	if err := pretty.Unmarshal(data, &v); err != nil {
		return err
	}
	out, err := pretty.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	buf.Write(out)
	return nil
}
