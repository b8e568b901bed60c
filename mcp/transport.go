package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rwa-tools/mcp-server-rwa/jsonrpc"
)

// DefaultMaxInFlight bounds how many requests a transport handles at once
const DefaultMaxInFlight = 16

// Transport handles the communication between stdin/stdout and the MCP server.
// Requests are handled concurrently, so responses may be written out of order.
type Transport struct {
	scanner     *bufio.Scanner
	errOut      io.Writer
	maxInFlight int

	mu     sync.Mutex
	writer *json.Encoder
	bufOut *bufio.Writer
}

// TransportOption configures a Transport
type TransportOption func(*Transport)

// WithMaxInFlight sets how many requests may be handled concurrently
func WithMaxInFlight(n int) TransportOption {
	return func(t *Transport) {
		if n > 0 {
			t.maxInFlight = n
		}
	}
}

// NewStdioTransport creates a new stdio transport
func NewStdioTransport(in io.Reader, out io.Writer, errOut io.Writer, opts ...TransportOption) *Transport {
	scanner := bufio.NewScanner(in)
	// Set a reasonable max size for each line
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	bufOut := bufio.NewWriter(out)
	t := &Transport{
		scanner:     scanner,
		writer:      json.NewEncoder(bufOut),
		bufOut:      bufOut,
		errOut:      errOut,
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run reads requests until EOF or until ctx is done, dispatching each to handler.
// It waits for in-flight requests before returning. A blocked read does not
// delay cancellation; the reader goroutine is left to finish on its own.
func (t *Transport) Run(ctx context.Context, handler jsonrpc.Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(t.maxInFlight)

	err := t.readLoop(ctx, &g, handler)
	_ = g.Wait()
	return err
}

type scanResult struct {
	line []byte
	err  error
}

// scan feeds lines to out until EOF or a read error, which is sent last
func (t *Transport) scan(ctx context.Context, out chan<- scanResult) {
	defer close(out)
	for t.scanner.Scan() {
		line := append([]byte(nil), t.scanner.Bytes()...)
		select {
		case out <- scanResult{line: line}:
		case <-ctx.Done():
			return
		}
	}
	if err := t.scanner.Err(); err != nil {
		select {
		case out <- scanResult{err: err}:
		case <-ctx.Done():
		}
	}
}

func (t *Transport) readLoop(ctx context.Context, g *errgroup.Group, handler jsonrpc.Handler) error {
	lines := make(chan scanResult)
	go t.scan(ctx, lines)

	for {
		var next scanResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-lines:
			if !ok {
				return nil
			}
			next = r
		}

		if next.err != nil {
			return fmt.Errorf("scanner error: %w", next.err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(next.line) == 0 {
			continue
		}

		var request jsonrpc.Request
		if err := json.Unmarshal(next.line, &request); err != nil {
			response := jsonrpc.NewResponse(nil, nil, jsonrpc.NewError(jsonrpc.ErrParse, err))
			t.write(&response)
			continue
		}

		g.Go(func() error {
			t.write(handler(ctx, request))
			return nil
		})
	}
}

func (t *Transport) write(response *jsonrpc.Response) {
	if response == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.writer.Encode(response); err != nil {
		fmt.Fprintf(t.errOut, "Error encoding response: %v\n", err)
	}
	if err := t.bufOut.Flush(); err != nil {
		fmt.Fprintf(t.errOut, "Error writing response: %v\n", err)
	}
}
