// Package cloudz connects to the billing account API: account lists per cloud
// supply code form the input feed, and the customer info endpoint answers
// ancestry lookups.
package cloudz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/orgtree/internal/connector"
	"github.com/crimson-sun/orgtree/internal/connector/httpclient"
	"github.com/crimson-sun/orgtree/internal/lookup"
	"github.com/crimson-sun/orgtree/internal/model"
)

const (
	defaultEndpoint = "https://bizapi.cloudz.co.kr"

	accountListPath        = "/account/csp/getAllAccountInfoList"
	datadogAccountListPath = "/account/csp/getAllDatadogAccountInfoList"
	customerInfoPath       = "/account/getCustomerInfo"

	// maxConcurrentCodes bounds parallel account list requests.
	maxConcurrentCodes = 4
)

// DefaultSupplyCodes are the cloud supply codes enumerated when none are
// configured: AWS, Azure (two contracts) and Datadog.
var DefaultSupplyCodes = []string{"04", "05", "07", "11"}

func init() {
	connector.Register("cloudz", func() connector.Connector {
		return &Connector{logger: slog.Default()}
	})
}

// Connector implements connector.Connector for the billing account API.
type Connector struct {
	logger *slog.Logger
}

// New creates a Connector that logs to logger.
func New(logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{logger: logger}
}

func newClient(cfg connector.ConnectorConfig) (*httpclient.Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("cloudz connector: username and password are required")
	}
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = defaultEndpoint
	}
	opts := []httpclient.Option{httpclient.WithBasicAuth(cfg.Username, cfg.Password)}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
	}
	return httpclient.New(baseURL, opts...), nil
}

// Customers fetches the account list of every configured supply code, in
// parallel, and returns the records in supply code order. A failing code is
// logged and skipped; the call fails only when every code fails.
func (c *Connector) Customers(ctx context.Context, cfg connector.ConnectorConfig) ([]model.CustomerRecord, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DatadogOnly {
		accounts, err := c.fetchAccounts(ctx, client, datadogAccountListPath, nil)
		if err != nil {
			return nil, fmt.Errorf("cloudz connector: %w", err)
		}
		return Records(accounts, c.logger), nil
	}

	codes := cfg.SupplyCodes
	if len(codes) == 0 {
		codes = DefaultSupplyCodes
	}

	results := make([][]AccountInfo, len(codes))
	errs := make([]error, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCodes)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			q := url.Values{}
			q.Set("cloudSupplyCode", code)
			accounts, err := c.fetchAccounts(gctx, client, accountListPath, q)
			if err != nil {
				errs[i] = fmt.Errorf("supply code %s: %w", code, err)
				return nil
			}
			results[i] = accounts
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var recs []model.CustomerRecord
	failed := 0
	for i, code := range codes {
		if errs[i] != nil {
			failed++
			c.logger.Warn("account list request failed", "supply_code", code, "error", errs[i])
			continue
		}
		c.logger.Info("account list fetched", "supply_code", code, "accounts", len(results[i]))
		for _, a := range results[i] {
			if !a.HasMaster() {
				c.logger.Debug("account has no master user",
					"supply_code", code, "customer_id", a.CustomerInfo.CustomerID, "users", len(a.UserInfoList))
			}
		}
		recs = append(recs, Records(results[i], c.logger)...)
	}
	if failed == len(codes) {
		return nil, fmt.Errorf("cloudz connector: %w", errors.Join(errs...))
	}
	return recs, nil
}

func (c *Connector) fetchAccounts(ctx context.Context, client *httpclient.Client, path string, q url.Values) ([]AccountInfo, error) {
	var resp AccountListResponse
	if err := client.GetJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	if resp.Result.Code != ResultOK {
		return nil, &ResultError{Path: path, Code: resp.Result.Code, Message: resp.Result.Message}
	}
	return resp.CSPAccountInfoList, nil
}

// Lookup returns a lookup backed by the customer info endpoint. A result code
// other than ResultOK, or an empty customer block, yields lookup.ErrNoData.
func (c *Connector) Lookup(cfg connector.ConnectorConfig) (lookup.Lookup, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return lookup.Func(func(ctx context.Context, customerID string) (model.Ancestry, error) {
		q := url.Values{}
		q.Set("customerId", customerID)

		var resp CustomerInfoResponse
		if err := client.GetJSON(ctx, customerInfoPath, q, &resp); err != nil {
			return model.Ancestry{}, fmt.Errorf("cloudz lookup %s: %w", customerID, err)
		}
		if resp.Result.Code != ResultOK {
			resErr := &ResultError{Path: customerInfoPath, Code: resp.Result.Code, Message: resp.Result.Message}
			return model.Ancestry{}, fmt.Errorf("%w: %w", lookup.ErrNoData, resErr)
		}
		if resp.CustomerInfo == nil || *resp.CustomerInfo == (CustomerInfo{}) {
			return model.Ancestry{}, lookup.ErrNoData
		}
		return resp.CustomerInfo.Ancestry(), nil
	}), nil
}
