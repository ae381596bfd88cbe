package cloudz

import (
	"fmt"
	"log/slog"

	"github.com/crimson-sun/orgtree/internal/model"
)

// ResultOK is the envelope result code for a successful call.
const ResultOK = "0000"

// Result is the status block every billing API response carries.
type Result struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResultError is returned when the envelope reports a code other than ResultOK.
type ResultError struct {
	Path    string
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("billing API %s: result %s: %s", e.Path, e.Code, msg)
}

// CustomerInfo is the customer block nested in account entries and returned
// by the per-customer lookup.
type CustomerInfo struct {
	CustomerID         string `json:"customerId"`
	CustomerName       string `json:"customerName"`
	ParentCustomerID   string `json:"parentCustomerId"`
	ParentCustomerName string `json:"parentCustomerName"`
}

// UserInfo is an account user; only the type is read.
type UserInfo struct {
	UserType string `json:"userType"`
}

// AccountInfo is one entry of an account list.
type AccountInfo struct {
	CustomerInfo CustomerInfo `json:"customerInfo"`
	UserInfoList []UserInfo   `json:"userInfoList,omitempty"`
}

// AccountListResponse is the body of the account list endpoints.
type AccountListResponse struct {
	Result             Result        `json:"result"`
	CSPAccountInfoList []AccountInfo `json:"cspAccountInfoList"`
}

// CustomerInfoResponse is the body of the per-customer lookup endpoint.
type CustomerInfoResponse struct {
	Result       Result        `json:"result"`
	CustomerInfo *CustomerInfo `json:"customerInfo"`
}

// Record converts the wire block into a CustomerRecord.
func (c CustomerInfo) Record() model.CustomerRecord {
	return model.CustomerRecord{
		ID:         c.CustomerID,
		Name:       c.CustomerName,
		ParentID:   c.ParentCustomerID,
		ParentName: c.ParentCustomerName,
	}
}

// Ancestry converts the wire block into lookup ancestry.
func (c CustomerInfo) Ancestry() model.Ancestry {
	return model.Ancestry{
		CustomerName: c.CustomerName,
		ParentID:     c.ParentCustomerID,
		ParentName:   c.ParentCustomerName,
	}
}

// HasMaster reports whether the account has a user of type "master".
func (a AccountInfo) HasMaster() bool {
	for _, u := range a.UserInfoList {
		if u.UserType == "master" {
			return true
		}
	}
	return false
}

// Records converts account entries to records, skipping entries without a
// customer id.
func Records(accounts []AccountInfo, logger *slog.Logger) []model.CustomerRecord {
	recs := make([]model.CustomerRecord, 0, len(accounts))
	for i, a := range accounts {
		if a.CustomerInfo.CustomerID == "" {
			logger.Warn("skipping account entry without customer id",
				"index", i, "customer_name", a.CustomerInfo.CustomerName)
			continue
		}
		recs = append(recs, a.CustomerInfo.Record())
	}
	return recs
}
