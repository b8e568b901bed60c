package jsonrpc

import "context"

// Handler processes a single JSON-RPC request.
// A nil response means the request was a notification and nothing is sent back.
type Handler func(ctx context.Context, request Request) *Response
