package connector

import (
	"context"
	"time"

	"github.com/crimson-sun/orgtree/internal/lookup"
	"github.com/crimson-sun/orgtree/internal/model"
)

// Connector is a source of customer records and of per-customer ancestry.
type Connector interface {
	// Customers fetches the input feed once.
	Customers(ctx context.Context, cfg ConnectorConfig) ([]model.CustomerRecord, error)

	// Lookup returns the per-customer ancestry lookup backed by this source.
	Lookup(cfg ConnectorConfig) (lookup.Lookup, error)
}

// ConnectorConfig holds provider-specific connection settings.
type ConnectorConfig struct {
	Provider    string
	Endpoint    string
	Username    string
	Password    string
	SupplyCodes []string // cloud supply codes to enumerate
	DatadogOnly bool     // read the Datadog account list instead of per-code lists
	InputFile   string
	Timeout     time.Duration
	Extra       map[string]string
}
