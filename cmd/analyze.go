package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revwatch/internal/analysis"
	"github.com/sells-group/revwatch/internal/export"
	"github.com/sells-group/revwatch/internal/ingest"
	"github.com/sells-group/revwatch/internal/model"
	"github.com/sells-group/revwatch/internal/normalize"
	"github.com/sells-group/revwatch/internal/store"
)

var (
	analyzeOut            string
	analyzeFormat         string
	analyzeFromSalesforce bool
	analyzeNoRecord       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze deal files for revenue leakage",
	Long: `Parses the given deal files (CSV, XLSX, TXT, PDF, or ftp:// URLs),
normalizes them into canonical records, and runs the leakage analysis.
With --from-salesforce, open opportunities are pulled from the CRM instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 0 && !analyzeFromSalesforce {
			return eris.New("no input: pass files or --from-salesforce")
		}

		reg, err := initRegistry()
		if err != nil {
			return err
		}

		var deals []model.Deal
		var failures []ingest.FileFailure
		if analyzeFromSalesforce {
			querier, err := initSalesforce(cfg.Salesforce)
			if err != nil {
				return err
			}
			rows, err := ingest.PullSalesforce(ctx, querier, cfg.Salesforce.SOQL)
			if err != nil {
				return err
			}
			deals = normalize.Normalize(reg, rows)
		} else {
			result := initParser(reg).ParseFiles(ctx, args, cfg.Ingest.MaxConcurrentFiles)
			if result.Loaded == 0 {
				for _, f := range result.Failures {
					fmt.Fprintf(os.Stderr, "failed: %s: %s\n", f.Path, f.Reason)
				}
				return eris.New("no files could be parsed")
			}
			deals = result.Deals
			failures = result.Failures
		}

		zap.L().Info("batch loaded",
			zap.Int("deals", len(deals)),
			zap.Int("failed_files", len(failures)),
		)

		outcome := initDispatcher(reg).Analyze(ctx, deals)

		if !analyzeNoRecord {
			recordRun(ctx, outcome, args, len(deals))
		}

		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "failed: %s: %s\n", f.Path, f.Reason)
		}

		return writeReport(outcome, time.Now())
	},
}

// recordRun persists the outcome when a store is configured. Recording is
// best-effort: a storage error never fails the analysis.
func recordRun(ctx context.Context, outcome analysis.Outcome, files []string, dealCount int) {
	st, err := initStore(ctx)
	if err != nil || st == nil {
		if err != nil {
			zap.L().Warn("run recording disabled", zap.Error(err))
		}
		return
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run recording failed", zap.Error(err))
		return
	}

	run := &store.AnalysisRun{
		Source:    string(outcome.Source),
		Provider:  outcome.Provider,
		Reason:    outcome.Reason,
		Files:     files,
		DealCount: dealCount,
		Summary:   outcome.Report.Summary,
		Report:    outcome.Report,
	}
	if err := st.SaveRun(ctx, run); err != nil {
		zap.L().Warn("run recording failed", zap.Error(err))
		return
	}
	zap.L().Info("run recorded", zap.String("run_id", run.ID))
}

// writeReport renders the outcome to --out (or stdout as JSON).
func writeReport(outcome analysis.Outcome, now time.Time) error {
	report := outcome.Report

	if analyzeOut == "" {
		fmt.Printf("Source: %s", outcome.Source)
		if outcome.Reason != "" {
			fmt.Printf(" (%s)", outcome.Reason)
		}
		fmt.Println()
		fmt.Printf("Total leakage: %s across %d issue(s)\n\n",
			export.FormatCurrency(report.Summary.TotalLeakage),
			report.Summary.IssuesFound,
		)
		return export.WriteJSON(os.Stdout, report)
	}

	switch analyzeFormat {
	case "csv":
		return export.WriteCSVFile(analyzeOut, report, now)
	case "xlsx":
		return export.WriteXLSXFile(analyzeOut, report, now)
	case "json":
		return export.WriteJSONFile(analyzeOut, report)
	default:
		return eris.Errorf("unsupported export format %q", analyzeFormat)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write the report to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "csv", "export format: csv, xlsx, or json")
	analyzeCmd.Flags().BoolVar(&analyzeFromSalesforce, "from-salesforce", false, "pull open opportunities from Salesforce")
	analyzeCmd.Flags().BoolVar(&analyzeNoRecord, "no-record", false, "do not record this run in the history store")
	rootCmd.AddCommand(analyzeCmd)
}
