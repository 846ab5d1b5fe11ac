// Package model defines the core data types shared across the watchdog pipeline.
package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Canonical field names every normalized deal record carries.
const (
	FieldDealID          = "deal_id"
	FieldCustomerName    = "customer_name"
	FieldDealSize        = "deal_size"
	FieldDiscountPercent = "discount_percent"
	FieldCloseDate       = "close_date"
	FieldRenewal         = "renewal"
	FieldDealStatus      = "deal_status"
)

// RawRow is a single tabular row as produced by a format extractor.
// Column names must already be lower-cased with spaces replaced by
// underscores; values are whatever the extractor produced (string or number).
type RawRow map[string]any

// Deal is a normalized deal record. All seven canonical fields are present
// after normalization; extra non-canonical columns pass through unchanged.
type Deal map[string]any

// String returns the value under key rendered as a string.
// Missing keys render as "".
func (d Deal) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// Float coerces the value under key to a float64. Missing or nil values
// coerce to 0; non-numeric values are an error.
func (d Deal) Float(key string) (float64, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, eris.Errorf("model: %s value %q is not numeric", key, n)
		}
		return f, nil
	default:
		return 0, eris.Errorf("model: %s value of type %T is not numeric", key, v)
	}
}

// DealID returns the record's deal_id, or "Unknown" when absent.
func (d Deal) DealID() string {
	if id := d.String(FieldDealID); id != "" {
		return id
	}
	return "Unknown"
}

// Risk types produced by the rule engine. The vocabulary is open: an
// external provider may return additional tags.
const (
	RiskUnauthorizedDiscount = "unauthorized_discount"
	RiskPhantomPipeline      = "phantom_pipeline"
)

// FlaggedIssue is a single detected leak point on a deal.
type FlaggedIssue struct {
	DealID     string  `json:"deal_id"`
	RiskType   string  `json:"risk_type"`
	Impact     float64 `json:"impact"`
	Suggestion string  `json:"suggestion"`
}

// Summary aggregates the flagged issues of one analysis.
//
// HighRiskDeals and IssuesFound are computed identically by the rule engine
// (it does not deduplicate per deal); both are kept because the report shape
// is shared with external providers, which may diverge them.
type Summary struct {
	TotalLeakage  float64 `json:"total_leakage"`
	HighRiskDeals int     `json:"high_risk_deals"`
	IssuesFound   int     `json:"issues_found"`
}

// SkippedRecord notes a deal the rule engine could not evaluate.
type SkippedRecord struct {
	DealID string `json:"deal_id"`
	Reason string `json:"reason"`
}

// Report is the fully materialized output of one analysis cycle. It is
// recomputed from scratch on every invocation and never updated in place.
type Report struct {
	Summary         Summary         `json:"summary"`
	FlaggedDeals    []FlaggedIssue  `json:"flagged_deals"`
	Recommendations []string        `json:"recommendations"`
	Skipped         []SkippedRecord `json:"skipped_records,omitempty"`
}
