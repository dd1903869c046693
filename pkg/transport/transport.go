package transport

import (
	"context"

	"github.com/richard-senior/podds/pkg/protocol"
)

// Transport defines the interface for stream based communication such as stdio
type Transport interface {
	ReadRequest() (*protocol.JsonRpcRequest, error)
	WriteResponse(*protocol.JsonRpcResponse) error
}

// RequestHandler answers a single JSON-RPC request. A nil response means
// the request was a notification and nothing should be sent back
type RequestHandler interface {
	HandleRequest(ctx context.Context, req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse
}

// MessageError is returned by ReadRequest for a complete message that is not a valid
// request. The stream is still usable, the client gets Response and reading goes on
type MessageError struct {
	Err error
}

func (e *MessageError) Error() string { return e.Err.Error() }

func (e *MessageError) Unwrap() error { return e.Err }

// Response is the error reply for the rejected message
func (e *MessageError) Response() *protocol.JsonRpcResponse {
	return protocol.ParseErrorResponse(e.Err)
}
