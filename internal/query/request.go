// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package query defines the transport-agnostic types exchanged between a data
// service client and the session that consumes its results: the request, the
// payloads it yields, and the Outcome a fetch resolves to.
//
// A fetch resolves to exactly one of two shapes. A Snapshot carries a single
// payload. A Stream carries a pull iterator over payloads that arrive over
// time. The transport decides which shape it produced; consumers switch on
// Outcome.Kind and never inspect payloads to find out.
package query

import "maps"

// DefaultDocument is used when no query document is configured.
const DefaultDocument = `query MyQuery {
  transactions(first: 5, orderBy: timestamp, orderDirection: desc) {
    swaps {
      amount0
      amount1
      amountUSD
      pool {
        token0 { name }
        token1 { name }
      }
    }
  }
}`

// Request describes what to fetch. It is immutable once built.
type Request struct {
	document      string
	operationName string
	variables     map[string]any
}

// NewRequest builds a request from a document and its variables.
// The variables map is copied; later changes by the caller are not observed.
func NewRequest(document string, variables map[string]any) Request {
	vars := make(map[string]any, len(variables))
	maps.Copy(vars, variables)
	return Request{document: document, variables: vars}
}

// WithOperationName returns a copy of r that selects the named operation.
func (r Request) WithOperationName(name string) Request {
	r.variables = r.Variables()
	r.operationName = name
	return r
}

// Document returns the query document text.
func (r Request) Document() string { return r.document }

// OperationName returns the selected operation name, or "".
func (r Request) OperationName() string { return r.operationName }

// Variables returns a copy of the request variables. Never nil.
func (r Request) Variables() map[string]any {
	vars := make(map[string]any, len(r.variables))
	maps.Copy(vars, r.variables)
	return vars
}
