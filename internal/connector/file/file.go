// Package file is an offline connector that reads a saved account list from
// disk and answers lookups from the same entries.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/crimson-sun/orgtree/internal/connector"
	"github.com/crimson-sun/orgtree/internal/connector/cloudz"
	"github.com/crimson-sun/orgtree/internal/lookup"
	"github.com/crimson-sun/orgtree/internal/model"
)

func init() {
	connector.Register("file", func() connector.Connector {
		return New(afero.NewOsFs(), slog.Default())
	})
}

// Connector implements connector.Connector over a JSON file holding either an
// account list envelope or a bare array of account entries.
type Connector struct {
	fs     afero.Fs
	logger *slog.Logger
}

// New creates a Connector reading from fs.
func New(fs afero.Fs, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{fs: fs, logger: logger}
}

func (c *Connector) Customers(_ context.Context, cfg connector.ConnectorConfig) ([]model.CustomerRecord, error) {
	accounts, err := c.read(cfg)
	if err != nil {
		return nil, err
	}
	return cloudz.Records(accounts, c.logger), nil
}

// Lookup answers from the file's entries. Customers absent from the file
// yield lookup.ErrNoData.
func (c *Connector) Lookup(cfg connector.ConnectorConfig) (lookup.Lookup, error) {
	accounts, err := c.read(cfg)
	if err != nil {
		return nil, err
	}
	static := make(lookup.Static, len(accounts))
	for _, a := range accounts {
		if a.CustomerInfo.CustomerID == "" {
			continue
		}
		static[a.CustomerInfo.CustomerID] = a.CustomerInfo.Ancestry()
	}
	return static, nil
}

func (c *Connector) read(cfg connector.ConnectorConfig) ([]cloudz.AccountInfo, error) {
	if cfg.InputFile == "" {
		return nil, errors.New("file connector: input file is required")
	}
	data, err := afero.ReadFile(c.fs, cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("file connector: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var accounts []cloudz.AccountInfo
		if err := json.Unmarshal(data, &accounts); err != nil {
			return nil, fmt.Errorf("file connector: decode %s: %w", cfg.InputFile, err)
		}
		return accounts, nil
	}

	var resp cloudz.AccountListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("file connector: decode %s: %w", cfg.InputFile, err)
	}
	if resp.Result.Code != "" && resp.Result.Code != cloudz.ResultOK {
		return nil, fmt.Errorf("file connector: %w", &cloudz.ResultError{
			Path: cfg.InputFile, Code: resp.Result.Code, Message: resp.Result.Message,
		})
	}
	return resp.CSPAccountInfoList, nil
}
