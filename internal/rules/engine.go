// Package rules implements the deterministic revenue-leakage analysis. It is
// the fallback path when no external provider is configured or delegation
// fails, and the only analysis that runs offline.
package rules

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/revwatch/internal/model"
	"github.com/sells-group/revwatch/internal/schema"
)

// recommendations is returned verbatim on every report, independent of the
// input.
var recommendations = []string{
	"Implement discount approval workflow",
	"Set up automated pipeline hygiene alerts",
	"Review pricing strategy for renewals",
}

// dateLayouts are tried in order when classifying close dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
}

// DateStatus classifies a close date relative to the evaluation instant.
type DateStatus int

const (
	// DateNotPast means the date parsed and is not strictly before now.
	DateNotPast DateStatus = iota
	// DatePast means the date parsed and is strictly before now.
	DatePast
	// DateUnknown means the value was empty or did not parse. Callers
	// collapse Unknown into NotPast; it exists so the distinction stays
	// inspectable.
	DateUnknown
)

// Engine evaluates deal records against the fixed rule set. It performs no
// I/O and holds no state between calls; given the same batch and the same
// evaluation instant it produces identical reports.
type Engine struct {
	reg *schema.Registry
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow fixes the evaluation instant, for testing.
func WithNow(t time.Time) Option {
	return func(e *Engine) {
		e.now = func() time.Time { return t }
	}
}

// NewEngine creates a rule engine using the registry's thresholds.
func NewEngine(reg *schema.Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Analyze runs every rule over every deal, in input order, and returns the
// aggregate report. Within one deal the discount rule is evaluated before the
// pipeline rule, and one deal may be flagged by both.
//
// A deal whose deal_size or discount_percent does not coerce to a number is
// skipped and listed in the report's skipped records; evaluation of the rest
// of the batch continues.
func (e *Engine) Analyze(deals []model.Deal) *model.Report {
	now := e.now()
	flagged := []model.FlaggedIssue{}
	var skipped []model.SkippedRecord
	var totalLeakage float64

	for _, deal := range deals {
		dealID := deal.DealID()

		dealSize, err := deal.Float(model.FieldDealSize)
		if err == nil {
			var discount float64
			discount, err = deal.Float(model.FieldDiscountPercent)
			if err == nil {
				// Rule 1: unauthorized discount above the sanctioned ceiling.
				if discount > e.reg.HighDiscountThreshold {
					impact := dealSize * (discount - e.reg.HighDiscountThreshold) / 100
					flagged = append(flagged, model.FlaggedIssue{
						DealID:     dealID,
						RiskType:   model.RiskUnauthorizedDiscount,
						Impact:     impact,
						Suggestion: fmt.Sprintf("Review %v%% discount approval for deal %s", discount, dealID),
					})
					totalLeakage += impact
				}

				// Rule 2: closed-in-the-past deal still sitting in the pipeline.
				if ClassifyCloseDate(deal.String(model.FieldCloseDate), now) == DatePast {
					impact := dealSize * e.reg.OpportunityCostFactor
					flagged = append(flagged, model.FlaggedIssue{
						DealID:     dealID,
						RiskType:   model.RiskPhantomPipeline,
						Impact:     impact,
						Suggestion: fmt.Sprintf("Remove expired deal %s from pipeline", dealID),
					})
					totalLeakage += impact
				}
			}
		}
		if err != nil {
			zap.L().Warn("rules: skipping unevaluable deal",
				zap.String("deal_id", dealID),
				zap.Error(err),
			)
			skipped = append(skipped, model.SkippedRecord{
				DealID: dealID,
				Reason: err.Error(),
			})
		}
	}

	return &model.Report{
		Summary: model.Summary{
			TotalLeakage:  totalLeakage,
			HighRiskDeals: len(flagged),
			IssuesFound:   len(flagged),
		},
		FlaggedDeals:    flagged,
		Recommendations: append([]string(nil), recommendations...),
		Skipped:         skipped,
	}
}

// ClassifyCloseDate reports whether a close date string is strictly before
// now. Empty or unparseable values classify as Unknown; the engine treats
// Unknown as NotPast rather than erroring.
func ClassifyCloseDate(value string, now time.Time) DateStatus {
	if value == "" {
		return DateUnknown
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if t.Before(now) {
			return DatePast
		}
		return DateNotPast
	}
	return DateUnknown
}
