package ingest

import (
	"context"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/revwatch/internal/model"
)

// SalesforceQuerier is the slice of the Salesforce API the ingester needs.
// The go-salesforce library does not accept a context, so implementations
// use ctx only for rate-limiter waits.
type SalesforceQuerier interface {
	Query(ctx context.Context, soql string, out any) error
}

// sfOpportunity mirrors the fields of the default opportunity SOQL. A custom
// query must still select these fields for the mapping below to work.
type sfOpportunity struct {
	ID        string  `json:"Id"`
	Name      string  `json:"Name"`
	Amount    float64 `json:"Amount"`
	StageName string  `json:"StageName"`
	CloseDate string  `json:"CloseDate"`
	Discount  float64 `json:"Discount__c"`
}

// PullSalesforce queries open opportunities from the CRM and returns them as
// raw rows. Column names are emitted in alias form (amount, status, close,
// discount) so the normalizer reconciles them like any file upload.
func PullSalesforce(ctx context.Context, client SalesforceQuerier, soql string) ([]model.RawRow, error) {
	var opps []sfOpportunity
	if err := client.Query(ctx, soql, &opps); err != nil {
		return nil, eris.Wrap(err, "ingest: salesforce query")
	}

	rows := make([]model.RawRow, len(opps))
	for i, o := range opps {
		rows[i] = model.RawRow{
			"deal_id":  o.ID,
			"customer": o.Name,
			"amount":   o.Amount,
			"status":   o.StageName,
			"close":    o.CloseDate,
			"discount": o.Discount,
		}
	}
	return rows, nil
}

// sfQuerier adapts the go-salesforce client to SalesforceQuerier.
type sfQuerier struct {
	sf *salesforce.Salesforce
}

// NewSalesforceQuerier wraps an initialized go-salesforce client.
func NewSalesforceQuerier(sf *salesforce.Salesforce) SalesforceQuerier {
	return &sfQuerier{sf: sf}
}

func (q *sfQuerier) Query(_ context.Context, soql string, out any) error {
	return q.sf.Query(soql, out)
}

// RateLimitedQuerier wraps a SalesforceQuerier with a per-second rate limit.
type RateLimitedQuerier struct {
	inner   SalesforceQuerier
	limiter *rate.Limiter
}

// NewRateLimitedQuerier creates a querier allowing rps queries per second.
func NewRateLimitedQuerier(inner SalesforceQuerier, rps float64) *RateLimitedQuerier {
	return &RateLimitedQuerier{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), max(int(rps), 1)),
	}
}

// Query implements SalesforceQuerier.
func (q *RateLimitedQuerier) Query(ctx context.Context, soql string, out any) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "ingest: salesforce rate limit")
	}
	return q.inner.Query(ctx, soql, out)
}
