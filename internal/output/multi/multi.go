package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/orgtree/internal/output"
	"github.com/crimson-sun/orgtree/internal/tree"
)

// Multi fans out the tree to multiple output.Output implementations.
// Each Write call delivers the tree to every wrapped output sequentially.
// If one output fails, the remaining outputs still receive it.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Len returns the number of wrapped outputs.
func (m *Multi) Len() int {
	return len(m.outputs)
}

// Write delivers t to every wrapped output. Errors are collected
// but do not prevent delivery to subsequent outputs.
func (m *Multi) Write(ctx context.Context, t tree.Tree) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
