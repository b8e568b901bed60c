package jsonrpc

import "encoding/json"

// Version is the JSON-RPC protocol version
const Version = "2.0"

// Request represents a JSON-RPC request object
type Request struct {
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Id      interface{}     `json:"id,omitempty"`
}

// NewRequest creates a new Request object
func NewRequest(method string, params json.RawMessage, id interface{}) Request {
	return Request{
		Version: Version,
		Method:  method,
		Params:  params,
		Id:      id,
	}
}

// IsNotification reports whether the request carries no id and so expects no response
func (r Request) IsNotification() bool {
	return r.Id == nil
}
