// Package tools implements the price tools exposed over MCP.
package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rwa-tools/mcp-server-rwa/internal/assets"
	"github.com/rwa-tools/mcp-server-rwa/internal/coingecko"
	"github.com/rwa-tools/mcp-server-rwa/mcp"
)

// Tool names
const (
	ListSupportedRWA = "list_supported_rwa"
	GetRWAPrice      = "get_rwa_price"
	GetCryptoPrice   = "get_crypto_price"
)

// PriceSource fetches USD quotes for lowercase asset ids
type PriceSource interface {
	Prices(ctx context.Context, ids ...string) (coingecko.Quotes, error)
}

// Variant selects which tool set a server exposes
type Variant string

const (
	// VariantRWA lists the catalog and quotes RWA tokens
	VariantRWA Variant = "rwa"
	// VariantLegacy exposes the single get_crypto_price tool
	VariantLegacy Variant = "legacy"
)

// ParseVariant validates a variant name; the empty string selects VariantRWA
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantRWA, nil
	case VariantRWA, VariantLegacy:
		return v, nil
	default:
		return "", fmt.Errorf("unknown tool variant %q (want %q or %q)", s, VariantRWA, VariantLegacy)
	}
}

// Toolset holds what the tool handlers share: the catalog and the price source.
// Both are read-only, so handlers may run concurrently.
type Toolset struct {
	catalog *assets.Catalog
	prices  PriceSource
	logger  *slog.Logger
}

// New returns a Toolset. A nil logger discards output.
func New(catalog *assets.Catalog, prices PriceSource, logger *slog.Logger) *Toolset {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Toolset{catalog: catalog, prices: prices, logger: logger}
}

// Tools returns the tool definitions and handlers of a variant, in listing order
func (ts *Toolset) Tools(v Variant) ([]mcp.ServerTool, error) {
	switch v {
	case VariantRWA:
		return []mcp.ServerTool{
			{
				Tool: mcp.Tool{
					Name:        ListSupportedRWA,
					Description: "List the real-world asset (RWA) tokens this server knows about, with their CoinGecko IDs",
					InputSchema: &jsonschema.Schema{Type: "object"},
				},
				Handler: ts.listSupportedRWA,
			},
			{
				Tool: mcp.Tool{
					Name:        GetRWAPrice,
					Description: "Get the current USD price, 24h change and market cap of a tokenized real-world asset",
					InputSchema: idSchema("asset_id", "The CoinGecko API ID of the asset (e.g., 'pax-gold', 'tether-gold', 'ondo-finance'). Use list_supported_rwa to see known IDs."),
				},
				Handler: ts.priceHandler("asset_id", ts.formatRWAQuote),
			},
		}, nil
	case VariantLegacy:
		return []mcp.ServerTool{
			{
				Tool: mcp.Tool{
					Name:        GetCryptoPrice,
					Description: "Get the current price of a cryptocurrency or RWA token in USD",
					InputSchema: idSchema("coin_id", "The CoinGecko API ID of the coin (e.g., 'bitcoin', 'ethereum', 'ondo-finance', 'tether-gold')"),
				},
				Handler: ts.priceHandler("coin_id", formatCryptoQuote),
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown tool variant %q", v)
	}
}

// Registry builds the registry for a variant
func (ts *Toolset) Registry(v Variant) (*mcp.Registry, error) {
	tools, err := ts.Tools(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewRegistry(tools...)
}

func idSchema(param, description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			param: {
				Type:        "string",
				Description: description,
			},
		},
		Required: []string{param},
	}
}

func (ts *Toolset) listSupportedRWA(_ context.Context, _ map[string]interface{}) mcp.CallToolResult {
	entries := ts.catalog.Entries()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("- %s: %s", e.ID, e.Label))
	}
	return mcp.TextResult(strings.Join(lines, "\n"))
}

type quoteFormatter func(id string, q coingecko.Quote) string

// priceHandler returns a handler that quotes the asset named by param
func (ts *Toolset) priceHandler(param string, format quoteFormatter) mcp.ToolHandler {
	return func(ctx context.Context, args map[string]interface{}) mcp.CallToolResult {
		raw, ok := args[param].(string)
		if !ok {
			return mcp.ErrorResult(fmt.Sprintf("Invalid argument %s: expected a string", param))
		}

		id := strings.ToLower(strings.TrimSpace(raw))
		if id == "" {
			return notFound(id)
		}

		quotes, err := ts.prices.Prices(ctx, id)
		if err != nil {
			ts.logger.Warn("price lookup failed", "id", id, "error", err)
			return mcp.ErrorResult(fmt.Sprintf("Failed to fetch price: %v", err))
		}

		quote, ok := quotes.Lookup(id)
		if !ok {
			return notFound(id)
		}
		return mcp.TextResult(format(id, quote))
	}
}

func notFound(id string) mcp.CallToolResult {
	return mcp.ErrorResult(fmt.Sprintf("Error: asset '%s' not found. Please check that the CoinGecko ID is correct.", id))
}

func formatCryptoQuote(id string, q coingecko.Quote) string {
	return fmt.Sprintf("The current price of %s is $%s USD.", id, formatPrice(q.PriceUSD))
}

func (ts *Toolset) formatRWAQuote(id string, q coingecko.Quote) string {
	var b strings.Builder
	if label, ok := ts.catalog.Label(id); ok {
		fmt.Fprintf(&b, "%s (%s)\n", label, id)
	} else {
		fmt.Fprintf(&b, "%s\n", id)
	}
	fmt.Fprintf(&b, "Price: $%s", formatPrice(q.PriceUSD))
	if q.Change24h != nil {
		fmt.Fprintf(&b, "\n24h Change: %.2f%%", *q.Change24h)
	}
	if q.MarketCap != nil {
		fmt.Fprintf(&b, "\nMarket Cap: $%s", formatMarketCap(*q.MarketCap))
	}
	return b.String()
}

// formatPrice prints the shortest decimal that round-trips, e.g. 2650.12 or 65000
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// formatMarketCap rounds to whole dollars and groups thousands, e.g. 987,654,321
func formatMarketCap(c float64) string {
	return message.NewPrinter(language.English).Sprintf("%.0f", math.Round(c))
}
