package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-audit/internal/compare"
	"github.com/sells-group/quote-audit/internal/extract"
	"github.com/sells-group/quote-audit/internal/grid"
	"github.com/sells-group/quote-audit/internal/resilience"
	"github.com/sells-group/quote-audit/internal/store"
	"github.com/sells-group/quote-audit/internal/validate"
	"github.com/sells-group/quote-audit/pkg/cpq"
	sfpkg "github.com/sells-group/quote-audit/pkg/salesforce"
)

// auditEnv holds the initialized store, CPQ client, and pipeline shared by
// the validate, batch, and serve commands.
type auditEnv struct {
	Store    store.Store
	Client   cpq.Client
	Pipeline *validate.Pipeline
}

// Close releases resources held by the audit environment.
func (e *auditEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initAudit sets up the store, field-spec registry, and comparator, and
// wires them into a Pipeline. A nil client means build one from config;
// batch passes a breaker-wrapped client instead. Callers should defer
// env.Close().
func initAudit(ctx context.Context, client cpq.Client) (*auditEnv, error) {
	if cfg.CPQ.BaseURL == "" {
		return nil, eris.New("cpq base URL is required (QUOTEAUDIT_CPQ_BASE_URL)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	reg, err := extract.LoadRegistry(cfg.Extract.SpecPath)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load field specs")
	}

	if client == nil {
		client = initClient()
	}

	p := validate.New(client, st,
		grid.NewDecoder(cfg.Extract.PdfToTextPath),
		extract.New(reg),
		compare.New(comparatorOptions()),
	)

	return &auditEnv{Store: st, Client: client, Pipeline: p}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "quote-audit.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClient builds the CPQ API client from configuration.
func initClient() cpq.Client {
	retry := resilience.FromRetryConfig(cfg.CPQ.MaxRetries, cfg.CPQ.BackoffMs)
	retry.OnRetry = resilience.RetryLogger("cpq", "get")

	opts := []cpq.Option{
		cpq.WithRateLimit(cfg.CPQ.RateLimit),
		cpq.WithRetryConfig(retry),
		cpq.WithTimeout(time.Duration(cfg.CPQ.TimeoutSecs) * time.Second),
	}
	if cfg.CPQ.Token != "" {
		opts = append(opts, cpq.WithBearerToken(cfg.CPQ.Token))
	} else if cfg.CPQ.Username != "" {
		opts = append(opts, cpq.WithBasicAuth(cfg.CPQ.Username, cfg.CPQ.Password))
	}
	return cpq.NewClient(cfg.CPQ.BaseURL, opts...)
}

// initSalesforce builds the optional transaction-discovery client. Returns
// nil with no error when Salesforce is not configured.
func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, nil
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit)), nil
}

func comparatorOptions() compare.Options {
	opts := compare.DefaultOptions()
	if cfg.Validation.NumericTolerance > 0 {
		opts.NumericTolerance = cfg.Validation.NumericTolerance
	}
	if cfg.Validation.PercentageTolerance > 0 {
		opts.PercentageTolerance = cfg.Validation.PercentageTolerance
	}
	return opts
}
