// Package gatewayerr defines the gateway's typed error hierarchy and how
// each kind maps onto an HTTP status and a Claude-shaped error envelope.
package gatewayerr

import (
	"fmt"
	"net/http"

	"claude-gateway/types"
)

// Kind classifies why a request failed.
type Kind int

const (
	// ClientSchema: the inbound Claude request itself is malformed (bad
	// JSON, unknown content-block type, dangling tool_result reference).
	ClientSchema Kind = iota
	// Directive: the PROXY DIRECTIVE block embedded in the system prompt
	// failed to parse.
	Directive
	// UpstreamTransport: the gateway could not reach or complete a TCP/TLS
	// connection to the upstream.
	UpstreamTransport
	// UpstreamProtocol: the upstream replied, but with a malformed or
	// unexpected body (bad JSON, missing fields, early stream termination).
	UpstreamProtocol
	// Internal: a bug or unexpected condition inside the gateway itself.
	Internal
)

// Error is a gatewayerr-classified error carrying an HTTP-facing message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Status returns the HTTP status code this kind renders as.
func (k Kind) Status() int {
	switch k {
	case ClientSchema, Directive:
		return http.StatusBadRequest
	case UpstreamTransport, UpstreamProtocol:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// anthropicType returns the "type" field of the Claude error envelope for
// this kind.
func (k Kind) anthropicType() string {
	switch k {
	case ClientSchema:
		return "invalid_request_error"
	case Directive:
		return "invalid_request_error"
	case UpstreamTransport:
		return "api_error"
	case UpstreamProtocol:
		return "api_error"
	default:
		return "api_error"
	}
}

// Envelope converts err into the Claude-shaped error body the HTTP layer
// writes to the client. Errors that are not a *Error are treated as
// Internal so a bug never leaks a raw Go error string with no type.
func Envelope(err error) (int, types.AnthropicError) {
	gwErr, ok := err.(*Error)
	if !ok {
		gwErr = Wrap(Internal, "internal error", err)
	}
	return gwErr.Kind.Status(), types.NewAnthropicError(gwErr.Kind.anthropicType(), gwErr.Message)
}
