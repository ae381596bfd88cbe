// Package lookup defines the per-customer ancestry lookup capability and the
// wrappers layered on top of it: caching, metrics and concurrent prefetch.
package lookup

import (
	"context"
	"errors"

	"github.com/crimson-sun/orgtree/internal/model"
)

// ErrNoData is returned when the upstream service has no ancestry for a customer.
var ErrNoData = errors.New("lookup: no data")

// Lookup answers what is known about a customer's parent. Any error means
// "no further ancestry is known" to the resolver.
type Lookup interface {
	Lookup(ctx context.Context, customerID string) (model.Ancestry, error)
}

// Func adapts a plain function to the Lookup interface.
type Func func(ctx context.Context, customerID string) (model.Ancestry, error)

// Lookup calls f.
func (f Func) Lookup(ctx context.Context, customerID string) (model.Ancestry, error) {
	return f(ctx, customerID)
}

// Static answers from a fixed map. Ids absent from the map yield ErrNoData.
type Static map[string]model.Ancestry

// Lookup returns the entry for customerID.
func (s Static) Lookup(_ context.Context, customerID string) (model.Ancestry, error) {
	a, ok := s[customerID]
	if !ok {
		return model.Ancestry{}, ErrNoData
	}
	return a, nil
}
