// FILE: src/internal/mcp/jsonrpc.go
package mcp

import (
	"encoding/json"
	"errors"

	"pgmoneta-mcp/src/internal/core"
)

const jsonrpcVersion = "2.0"

// JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is one JSON-RPC call or notification. A missing id marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the caller expects no reply
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response carries exactly one of Result or Error
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// errorCode classifies a tool failure. Unparseable replies map to a parse
// error and a daemon-reported failure to an invalid request.
func errorCode(err error) int {
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return CodeParseError
	case errors.Is(err, core.ErrApplication):
		return CodeInvalidRequest
	default:
		return CodeInternalError
	}
}

func result(id json.RawMessage, v any) *Response {
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Result: v}
}

func failure(id json.RawMessage, e *Error) *Response {
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Error: e}
}
