package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revwatch/internal/model"
)

const analysisPrompt = `Analyze the following deals data for revenue leakage and margin risks:

ANALYSIS REQUIREMENTS:
1. Identify leak points: unauthorized discounts, missed uplifts, expired incentives, late renewals, out-of-policy credits
2. For each issue found, provide: deal_id, risk_type, estimated impact, remediation suggestion
3. Respond in valid JSON format only

DEALS DATA:
%s

Respond with JSON in this format:
{
    "summary": {"total_leakage": 0, "high_risk_deals": 0, "issues_found": 0},
    "flagged_deals": [
        {"deal_id": "123", "risk_type": "unauthorized_discount", "impact": 5000, "suggestion": "Review approval process"}
    ],
    "recommendations": ["action1", "action2"]
}`

// buildPrompt serializes the batch into the fixed instruction template.
func buildPrompt(deals []model.Deal) (string, error) {
	payload, err := json.MarshalIndent(deals, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "analysis: marshal deals")
	}
	return fmt.Sprintf(analysisPrompt, payload), nil
}

// parseReport decodes a provider completion into a report. Providers wrap
// their JSON in prose or markdown fences often enough that the text is
// trimmed down to its outermost object first. A response missing the summary
// or flagged_deals keys does not count as a report.
func parseReport(text string) (*model.Report, error) {
	text = cleanJSON(text)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, eris.Wrap(err, "analysis: decode provider response")
	}
	if _, ok := probe["summary"]; !ok {
		return nil, eris.New("analysis: provider response has no summary")
	}
	if _, ok := probe["flagged_deals"]; !ok {
		return nil, eris.New("analysis: provider response has no flagged_deals")
	}

	var report model.Report
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, eris.Wrap(err, "analysis: decode provider report")
	}
	if report.FlaggedDeals == nil {
		report.FlaggedDeals = []model.FlaggedIssue{}
	}
	return &report, nil
}

// cleanJSON strips markdown fences and surrounding prose from a completion,
// leaving the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
