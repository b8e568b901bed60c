package mcp

import "github.com/google/jsonschema-go/jsonschema"

// Version is the Model Context Protocol version
const Version = "2024-11-05"

// Content types
type (
	// Content is a single block of a tool result. Only text blocks are produced.
	Content struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
)

// NewTextContent creates a text content block
func NewTextContent(text string) Content {
	return Content{
		Type: "text",
		Text: text,
	}
}

// Initialize
type (
	// ServerCapabilities represents the server's supported capabilities
	ServerCapabilities struct {
		Tools *struct {
			ListChanged bool `json:"listChanged"`
		} `json:"tools,omitempty"`
	}

	// ServerInfo represents information about an MCP implementation
	ServerInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}

	// InitializeRequest represents a request to initialize the server
	InitializeRequest struct {
		ProtocolVersion string                 `json:"protocolVersion"`
		Capabilities    map[string]interface{} `json:"capabilities,omitempty"`
		ClientInfo      ServerInfo             `json:"clientInfo"`
	}

	// InitializeResponse represents the server's response to an initialize request
	InitializeResponse struct {
		ProtocolVersion string             `json:"protocolVersion"`
		Capabilities    ServerCapabilities `json:"capabilities"`
		ServerInfo      ServerInfo         `json:"serverInfo"`
		Instructions    string             `json:"instructions,omitempty"`
	}
)

// Tools
type (
	// Tool represents a single tool in the tools/list response
	Tool struct {
		Name        string             `json:"name"`
		Description string             `json:"description,omitempty"`
		InputSchema *jsonschema.Schema `json:"inputSchema"`
	}

	// ToolsListRequest represents a request to list available tools.
	// All tools fit on one page, so the only valid cursor is the empty one.
	ToolsListRequest struct {
		Cursor string `json:"cursor,omitempty"`
	}

	// ToolsListResponse represents the response for the tools/list method
	ToolsListResponse struct {
		Tools      []Tool `json:"tools"`
		NextCursor string `json:"nextCursor,omitempty"`
	}

	// ToolCallRequest represents a request to call a specific tool
	ToolCallRequest struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments,omitempty"`
	}

	// CallToolResult is the outcome of a tool call.
	// It always holds at least one content block; IsError marks business failures.
	CallToolResult struct {
		Content []Content `json:"content"`
		IsError bool      `json:"isError,omitempty"`
	}
)

// TextResult returns a successful result with a single text block
func TextResult(text string) CallToolResult {
	return CallToolResult{Content: []Content{NewTextContent(text)}}
}

// ErrorResult returns a tool-level error result with a single text block
func ErrorResult(text string) CallToolResult {
	return CallToolResult{Content: []Content{NewTextContent(text)}, IsError: true}
}

// Text concatenates the text of all content blocks
func (r CallToolResult) Text() string {
	var text string
	for i, c := range r.Content {
		if i > 0 {
			text += "\n"
		}
		text += c.Text
	}
	return text
}

// Ping
type (
	// PingResponse represents the response for ping
	PingResponse struct{}
)
