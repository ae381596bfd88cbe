package stdout

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/orgtree/internal/output"
	"github.com/crimson-sun/orgtree/internal/tree"
)

// Output writes the indented tree document to stdout.
type Output struct {
	w io.Writer
}

// New creates a stdout Output.
func New() *Output {
	return &Output{w: os.Stdout}
}

// NewWriter creates an Output writing to w instead of stdout.
func NewWriter(w io.Writer) *Output {
	return &Output{w: w}
}

func (o *Output) Write(_ context.Context, t tree.Tree) error {
	if err := output.Encode(o.w, t); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
