package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/revwatch/internal/analysis"
	"github.com/sells-group/revwatch/internal/config"
	"github.com/sells-group/revwatch/internal/ingest"
	"github.com/sells-group/revwatch/internal/rules"
	"github.com/sells-group/revwatch/internal/schema"
	"github.com/sells-group/revwatch/internal/store"
	"github.com/sells-group/revwatch/pkg/anthropic"
	"github.com/sells-group/revwatch/pkg/openrouter"
)

// initRegistry loads the field registry, applying any configured overlay.
func initRegistry() (*schema.Registry, error) {
	reg, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// initParser builds the file ingester from config.
func initParser(reg *schema.Registry) *ingest.Parser {
	return ingest.NewParser(reg, ingest.Options{
		PdfToTextPath:  cfg.Ingest.PdfToTextPath,
		MaxPDFAmounts:  cfg.Ingest.MaxPDFAmounts,
		MinDealAmount:  cfg.Ingest.MinDealAmount,
		FTPTimeoutSecs: cfg.FTP.TimeoutSecs,
	})
}

// initDispatcher assembles the analysis path. When the configured provider
// has no credential, the dispatcher is rule-engine only.
func initDispatcher(reg *schema.Registry) *analysis.Dispatcher {
	engine := rules.NewEngine(reg)
	timeout := time.Duration(cfg.Provider.TimeoutSecs) * time.Second

	var provider analysis.Provider
	switch cfg.Provider.Name {
	case "anthropic":
		if cfg.Anthropic.Key != "" {
			provider = analysis.NewAnthropicProvider(
				anthropic.NewClient(cfg.Anthropic.Key),
				cfg.Anthropic.Model,
			)
		}
	default: // openrouter
		if cfg.OpenRouter.Key != "" {
			provider = analysis.NewOpenRouterProvider(openrouter.NewClient(
				cfg.OpenRouter.Key,
				openrouter.WithBaseURL(cfg.OpenRouter.BaseURL),
				openrouter.WithModel(cfg.OpenRouter.Model),
				openrouter.WithRateLimit(cfg.OpenRouter.RequestsPerSec),
				openrouter.WithMaxRetries(cfg.OpenRouter.MaxRetries),
			))
		}
	}

	return analysis.NewDispatcher(provider, engine, timeout)
}

// initStore opens the run-history backend, or returns (nil, nil) when run
// recording is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "":
		return nil, nil
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initSalesforce builds a JWT-authenticated Salesforce querier.
func initSalesforce(sfCfg config.SalesforceConfig) (ingest.SalesforceQuerier, error) {
	if sfCfg.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (REVWATCH_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(sfCfg.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         sfCfg.LoginURL,
		Username:       sfCfg.Username,
		ConsumerKey:    sfCfg.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return ingest.NewSalesforceQuerier(sf), nil
}
