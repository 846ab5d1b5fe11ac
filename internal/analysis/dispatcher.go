// Package analysis routes a batch of deal records either to an external
// language-model provider or to the deterministic rule engine, applying a
// uniform fallback policy: the caller always gets a report.
package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/revwatch/internal/model"
	"github.com/sells-group/revwatch/internal/rules"
)

// Provider is an external analysis collaborator. Implementations serialize
// the deals into a fixed instruction template and return the provider's
// report, or an error for any transport, status, or shape problem.
type Provider interface {
	// Name identifies the provider in logs and run records.
	Name() string
	AnalyzeDeals(ctx context.Context, deals []model.Deal) (*model.Report, error)
}

// Source records which path produced a report.
type Source string

const (
	SourceRules    Source = "rules"
	SourceProvider Source = "provider"
)

// Outcome is the result of one dispatch. Reason distinguishes "the rule
// engine ran because no provider was configured" from "the rule engine ran
// because the provider failed".
type Outcome struct {
	Report   *model.Report `json:"report"`
	Source   Source        `json:"source"`
	Provider string        `json:"provider,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// Delegated reports whether the external provider produced the report.
func (o Outcome) Delegated() bool { return o.Source == SourceProvider }

// FellBack reports whether the rule engine ran because delegation failed.
func (o Outcome) FellBack() bool { return o.Source == SourceRules && o.Reason != reasonNoProvider }

const reasonNoProvider = "no provider configured"

// defaultTimeout bounds one provider call.
const defaultTimeout = 30 * time.Second

// Dispatcher decides per batch whether to delegate analysis.
type Dispatcher struct {
	provider Provider // nil when no credential is configured
	engine   *rules.Engine
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher. A nil provider means every batch goes
// straight to the rule engine.
func NewDispatcher(provider Provider, engine *rules.Engine, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{provider: provider, engine: engine, timeout: timeout}
}

// Analyze produces a report for the batch. It never fails: any provider
// error, from a timeout to a response that does not decode to the expected
// report shape, degrades silently to the rule engine.
func (d *Dispatcher) Analyze(ctx context.Context, deals []model.Deal) Outcome {
	if d.provider == nil {
		return Outcome{
			Report: d.engine.Analyze(deals),
			Source: SourceRules,
			Reason: reasonNoProvider,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	report, err := d.provider.AnalyzeDeals(callCtx, deals)
	if err != nil {
		zap.L().Warn("analysis: provider failed, falling back to rule engine",
			zap.String("provider", d.provider.Name()),
			zap.Int("deals", len(deals)),
			zap.Error(err),
		)
		return Outcome{
			Report:   d.engine.Analyze(deals),
			Source:   SourceRules,
			Provider: d.provider.Name(),
			Reason:   err.Error(),
		}
	}

	return Outcome{
		Report:   report,
		Source:   SourceProvider,
		Provider: d.provider.Name(),
	}
}
