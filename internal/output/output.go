package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/crimson-sun/orgtree/internal/tree"
)

// Output defines the interface for tree artifact destinations.
type Output interface {
	Write(ctx context.Context, t tree.Tree) error
	Close() error
}

// Encode writes t to w as indented JSON. Non-ASCII and HTML characters are
// written as-is.
func Encode(w io.Writer, t tree.Tree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(t)
}
