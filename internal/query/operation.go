// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// liveDirective marks a query whose result the service keeps pushing.
const liveDirective = "live"

// Operation summarizes the selected operation of a request document.
type Operation struct {
	Type ast.Operation
	Name string
	Live bool
}

// Streaming reports whether the service is expected to answer with a stream.
func (o Operation) Streaming() bool {
	return o.Type == ast.Subscription || o.Live
}

// ParseOperation parses the document of req and returns the operation the
// request selects. Documents with several operations need an operation name.
func ParseOperation(req Request) (Operation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "request", Input: req.Document()})
	if err != nil {
		return Operation{}, fmt.Errorf("parse query document: %w", err)
	}
	if len(doc.Operations) == 0 {
		return Operation{}, fmt.Errorf("query document has no operations")
	}

	var op *ast.OperationDefinition
	switch name := req.OperationName(); {
	case name != "":
		op = doc.Operations.ForName(name)
		if op == nil {
			return Operation{}, fmt.Errorf("operation %q not found in document", name)
		}
	case len(doc.Operations) == 1:
		op = doc.Operations[0]
	default:
		return Operation{}, fmt.Errorf("document has %d operations; an operation name is required", len(doc.Operations))
	}

	return Operation{
		Type: op.Operation,
		Name: op.Name,
		Live: op.Directives.ForName(liveDirective) != nil,
	}, nil
}
