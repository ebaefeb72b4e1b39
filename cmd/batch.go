package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/quote-audit/internal/fetcher"
	"github.com/sells-group/quote-audit/internal/model"
	"github.com/sells-group/quote-audit/internal/resilience"
	"github.com/sells-group/quote-audit/pkg/cpq"
)

var (
	batchManifest string
	batchFTPDir   string
	batchLimit    int
	batchDLQPath  string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Audit a batch of quote documents concurrently",
	Long: `Validates many documents against their CPQ transactions. Sources:

  --manifest file.csv   CSV rows of transaction_id,document_path
  --ftp-dir path        FTP inbox directory; file names must start with the
                        transaction ID (for example 4842296_quote.xls)

Individual failures never abort the batch; they are collected into a
dead-letter file for replay. A circuit breaker fails the rest of the batch
fast when the CPQ API stops answering.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if (batchManifest == "") == (batchFTPDir == "") {
			return eris.New("exactly one of --manifest or --ftp-dir is required")
		}

		breaker := cpq.NewBreaker(resilience.FromCircuitConfig(cfg.Batch.BreakerThreshold, cfg.Batch.BreakerResetSecs))
		env, err := initAudit(ctx, cpq.WithBreaker(initClient(), breaker))
		if err != nil {
			return err
		}
		defer env.Close()

		var items []batchItem
		if batchManifest != "" {
			items, err = readManifest(batchManifest)
		} else {
			items, err = listInbox(ctx, batchFTPDir)
		}
		if err != nil {
			return err
		}

		return processBatch(ctx, items, batchLimit, cfg.Batch.MaxConcurrentDocuments, batchDLQPath, func(ctx context.Context, item batchItem) (*model.Run, error) {
			doc, err := item.load(ctx)
			if err != nil {
				return nil, err
			}
			return env.Pipeline.Run(ctx, item.TransactionID, doc)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "", "CSV manifest of transaction_id,document_path rows")
	batchCmd.Flags().StringVar(&batchFTPDir, "ftp-dir", "", "FTP inbox directory to validate")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max documents to validate (0 = all)")
	batchCmd.Flags().StringVar(&batchDLQPath, "dlq", "failed-documents.json", "dead-letter file for failed documents (empty to disable)")
	rootCmd.AddCommand(batchCmd)
}

// batchItem is one document queued for validation and how to load it.
// Documents are loaded lazily inside the workers.
type batchItem struct {
	TransactionID string
	Source        string
	load          func(ctx context.Context) (*fetcher.Document, error)
}

// readManifest parses a CSV of transaction_id,document_path rows. Relative
// document paths are resolved against the manifest's directory.
func readManifest(path string) ([]batchItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open manifest %s", path)
	}
	defer f.Close() //nolint:errcheck

	dir := filepath.Dir(path)
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var items []batchItem
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read manifest %s", path)
		}
		if len(record) < 2 {
			return nil, eris.Errorf("manifest %s: rows need transaction_id,document_path columns", path)
		}

		transactionID := strings.TrimSpace(record[0])
		docPath := strings.TrimSpace(record[1])
		if transactionID == "" || docPath == "" || strings.EqualFold(transactionID, "transaction_id") {
			continue
		}
		if !filepath.IsAbs(docPath) {
			docPath = filepath.Join(dir, docPath)
		}

		items = append(items, batchItem{
			TransactionID: transactionID,
			Source:        docPath,
			load: func(context.Context) (*fetcher.Document, error) {
				return fetcher.ReadLocal(docPath)
			},
		})
	}
	return items, nil
}

// listInbox lists the FTP inbox and derives each document's transaction ID
// from its file name.
func listInbox(ctx context.Context, dir string) ([]batchItem, error) {
	inbox := fetcher.NewFTPInbox(fetcher.FTPOptions{
		Host:     cfg.FTP.Host,
		User:     cfg.FTP.User,
		Password: cfg.FTP.Password,
		Timeout:  time.Duration(cfg.FTP.TimeoutSecs) * time.Second,
	})

	names, err := inbox.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	var items []batchItem
	for _, name := range names {
		id, ok := transactionIDFromName(name)
		if !ok {
			zap.L().Warn("skipping document without transaction id in name", zap.String("document", name))
			continue
		}
		items = append(items, batchItem{
			TransactionID: id,
			Source:        name,
			load: func(ctx context.Context) (*fetcher.Document, error) {
				return inbox.Fetch(ctx, dir, name)
			},
		})
	}
	return items, nil
}

// transactionIDFromName extracts the leading digit run from a document
// name, the inbox naming convention (4842296_quote.xls).
func transactionIDFromName(name string) (string, bool) {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return "", false
	}
	return name[:i], true
}

// runFunc validates one batch item.
type runFunc func(ctx context.Context, item batchItem) (*model.Run, error)

// processBatch validates items concurrently. Individual failures never
// abort the batch; they are counted and collected into the dead-letter
// file for later replay.
func processBatch(ctx context.Context, items []batchItem, limit, concurrency int, dlqPath string, runOne runFunc) error {
	if len(items) == 0 {
		zap.L().Info("no documents to validate")
		return nil
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("documents", len(items)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var passed, failed, errored atomic.Int64
	var mu sync.Mutex
	var dlq []resilience.DLQEntry

	for _, item := range items {
		g.Go(func() error {
			log := zap.L().With(
				zap.String("transaction_id", item.TransactionID),
				zap.String("document", item.Source),
			)

			run, err := runOne(gctx, item)
			if err != nil {
				errored.Add(1)
				log.Error("validation errored", zap.Error(err))
				mu.Lock()
				dlq = append(dlq, resilience.NewDLQEntry(item.TransactionID, item.Source, err))
				mu.Unlock()
				return nil // don't abort batch on individual failure
			}

			if run.Result != nil && run.Result.OverallStatus == model.StatusPassed {
				passed.Add(1)
			} else {
				failed.Add(1)
			}
			log.Info("validation complete",
				zap.Int("matches", run.Matches),
				zap.Int("mismatches", run.Mismatches),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("passed", passed.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("errored", errored.Load()),
	)

	if len(dlq) > 0 && dlqPath != "" {
		if err := writeDLQ(dlqPath, dlq); err != nil {
			return err
		}
		zap.L().Info("dead letters written", zap.String("path", dlqPath), zap.Int("count", len(dlq)))
	}
	return nil
}

// writeDLQ saves failed batch entries for later replay.
func writeDLQ(path string, entries []resilience.DLQEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal dead letters")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write dead letters %s", path)
	}
	return nil
}
