// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

import (
	"encoding/json"
	"time"
)

// ResponseError is an error reported by the data service inside a payload.
// It is content, not a transport failure.
type ResponseError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Payload is the query data at one point in time. Data is raw JSON and is
// forwarded as-is; only the presentation layer decodes it.
type Payload struct {
	Data       json.RawMessage `json:"data,omitempty"`
	Errors     []ResponseError `json:"errors,omitempty"`
	ReceivedAt time.Time       `json:"-"`
}

// HasErrors reports whether the service attached errors to the payload.
func (p Payload) HasErrors() bool { return len(p.Errors) > 0 }

// IsZero reports whether p carries neither data nor errors.
func (p Payload) IsZero() bool {
	return len(p.Data) == 0 && len(p.Errors) == 0
}
