// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

import (
	"bytes"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

type wireError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions"`
}

type wireResponse struct {
	Data   jsoniter.RawMessage `json:"data"`
	Errors []wireError         `json:"errors"`
}

// DecodeResponse decodes a GraphQL response body ({"data": ..., "errors": [...]}).
// A null data member yields a payload without data.
func DecodeResponse(body []byte, receivedAt time.Time) (Payload, error) {
	var wr wireResponse
	if err := codec.Unmarshal(body, &wr); err != nil {
		return Payload{}, fmt.Errorf("decode graphql response: %w", err)
	}

	p := Payload{ReceivedAt: receivedAt}
	if data := bytes.TrimSpace(wr.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		p.Data = append([]byte(nil), data...)
	}
	for _, e := range wr.Errors {
		p.Errors = append(p.Errors, ResponseError{
			Message: e.Message,
			Path:    e.Path,
			Code:    e.Extensions.Code,
		})
	}
	if p.IsZero() {
		return Payload{}, fmt.Errorf("graphql response has neither data nor errors")
	}
	return p, nil
}

// EncodeRequest encodes req as a GraphQL-over-HTTP request body.
func EncodeRequest(req Request) ([]byte, error) {
	body := map[string]any{
		"query":     req.Document(),
		"variables": req.Variables(),
	}
	if name := req.OperationName(); name != "" {
		body["operationName"] = name
	}
	return codec.Marshal(body)
}
