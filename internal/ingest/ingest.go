// Package ingest turns heterogeneous deal files (CSV, XLSX, loosely
// structured text, PDF) into normalized deal records. Each file is one
// batch: the deal_id sequence restarts per file.
package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/revwatch/internal/model"
	"github.com/sells-group/revwatch/internal/normalize"
	"github.com/sells-group/revwatch/internal/schema"
)

// Options configures the extractors.
type Options struct {
	PdfToTextPath  string  // pdftotext binary, default "pdftotext"
	MaxPDFAmounts  int     // how many scraped amounts become records, default 5
	MinDealAmount  float64 // scraped amounts at or below this are noise, default 1000
	FTPTimeoutSecs int     // per-connection FTP timeout, default 30
}

// Parser extracts raw rows from files and normalizes them against a registry.
type Parser struct {
	reg  *schema.Registry
	opts Options
}

// NewParser creates a Parser.
func NewParser(reg *schema.Registry, opts Options) *Parser {
	if opts.PdfToTextPath == "" {
		opts.PdfToTextPath = "pdftotext"
	}
	if opts.MaxPDFAmounts == 0 {
		opts.MaxPDFAmounts = 5
	}
	if opts.MinDealAmount == 0 {
		opts.MinDealAmount = 1000
	}
	if opts.FTPTimeoutSecs == 0 {
		opts.FTPTimeoutSecs = 30
	}
	return &Parser{reg: reg, opts: opts}
}

// ParseFile extracts and normalizes one file, chosen by extension. Paths
// with an ftp:// scheme are downloaded to a temporary file first.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]model.Deal, error) {
	if strings.HasPrefix(path, "ftp://") {
		local, cleanup, err := p.fetchFTP(ctx, path)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		return p.ParseFile(ctx, local)
	}

	var rows []model.RawRow
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = p.parseCSVFile(path)
	case ".xlsx":
		rows, err = p.parseXLSXFile(path)
	case ".txt":
		rows, err = p.parseTextFile(path)
	case ".pdf":
		rows, err = p.parsePDFFile(ctx, path)
	default:
		return nil, eris.Errorf("ingest: unsupported file format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: parse %s", path)
	}

	return normalize.Normalize(p.reg, rows), nil
}

// FileFailure records why one file in a batch could not be ingested.
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// BatchResult aggregates a multi-file ingest. One file's failure never
// aborts the others.
type BatchResult struct {
	Deals    []model.Deal  `json:"deals"`
	Loaded   int           `json:"loaded"`
	Failures []FileFailure `json:"failures,omitempty"`
}

// ParseFiles ingests several files with bounded concurrency, preserving the
// input file order in the combined batch. Because the deal_id sequence
// restarts per file, generated ids can collide across files; collisions are
// logged, not fixed.
func (p *Parser) ParseFiles(ctx context.Context, paths []string, concurrency int) BatchResult {
	if concurrency <= 0 {
		concurrency = 4
	}

	perFile := make([][]model.Deal, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			deals, err := p.ParseFile(gctx, path)
			if err != nil {
				errs[i] = err
				return nil
			}
			perFile[i] = deals
			return nil
		})
	}
	_ = g.Wait()

	var result BatchResult
	seen := make(map[string]bool)
	for i, path := range paths {
		if errs[i] != nil {
			zap.L().Warn("ingest: file failed",
				zap.String("path", path),
				zap.Error(errs[i]),
			)
			result.Failures = append(result.Failures, FileFailure{
				Path:   path,
				Reason: errs[i].Error(),
			})
			continue
		}
		result.Loaded++
		for _, d := range perFile[i] {
			id := d.DealID()
			if seen[id] {
				zap.L().Warn("ingest: duplicate deal id across files",
					zap.String("deal_id", id),
					zap.String("path", path),
				)
			}
			seen[id] = true
		}
		result.Deals = append(result.Deals, perFile[i]...)
	}
	return result
}

// normalizeHeader lower-cases a column name and replaces spaces with
// underscores, the form the normalizer expects.
func normalizeHeader(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
