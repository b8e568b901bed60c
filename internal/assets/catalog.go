// Package assets holds the static catalog of supported real-world asset tokens.
package assets

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entry is a single catalog row: a CoinGecko asset id and its display label.
type Entry struct {
	ID    string
	Label string
}

// Catalog is an ordered, read-only mapping from asset id to label.
// It is safe for concurrent use once constructed.
type Catalog struct {
	entries *orderedmap.OrderedMap[string, string]
}

// NewCatalog builds a catalog preserving the order of entries.
// Ids must be non-empty, lowercase, trimmed and unique, since lookups use
// the normalized form of the requested id.
func NewCatalog(entries ...Entry) (*Catalog, error) {
	m := orderedmap.New[string, string]()
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry %q has an empty id", e.Label)
		}
		if e.ID != strings.ToLower(strings.TrimSpace(e.ID)) {
			return nil, fmt.Errorf("catalog id %q must be lowercase without surrounding spaces", e.ID)
		}
		if _, exists := m.Get(e.ID); exists {
			return nil, fmt.Errorf("duplicate catalog id %q", e.ID)
		}
		m.Set(e.ID, e.Label)
	}
	return &Catalog{entries: m}, nil
}

// Default returns the built-in RWA catalog.
func Default() *Catalog {
	c, err := NewCatalog(
		Entry{ID: "pax-gold", Label: "PAX Gold (PAXG)"},
		Entry{ID: "tether-gold", Label: "Tether Gold (XAUT)"},
		Entry{ID: "ondo-finance", Label: "Ondo Finance (ONDO)"},
		Entry{ID: "ondo-us-dollar-yield", Label: "Ondo US Dollar Yield (USDY)"},
		Entry{ID: "centrifuge", Label: "Centrifuge (CFG)"},
		Entry{ID: "maple", Label: "Maple Finance (MPL)"},
		Entry{ID: "mantra-dao", Label: "MANTRA (OM)"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Entries returns the catalog rows in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entry{ID: pair.Key, Label: pair.Value})
	}
	return out
}

// Label returns the display label for id.
func (c *Catalog) Label(id string) (string, bool) {
	return c.entries.Get(id)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return c.entries.Len()
}
