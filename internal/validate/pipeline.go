// Package validate orchestrates a full audit of one quote document: fetch
// the authoritative CPQ transaction and its lines, decode and extract the
// document, compare the two sides, and persist the run. The CLI and the
// HTTP server both drive validations through this package.
package validate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quote-audit/internal/compare"
	"github.com/sells-group/quote-audit/internal/extract"
	"github.com/sells-group/quote-audit/internal/fetcher"
	"github.com/sells-group/quote-audit/internal/grid"
	"github.com/sells-group/quote-audit/internal/model"
	"github.com/sells-group/quote-audit/internal/store"
	"github.com/sells-group/quote-audit/pkg/cpq"
)

// Pipeline wires the audit stages together.
type Pipeline struct {
	client  cpq.Client
	store   store.Store
	decoder *grid.Decoder
	ext     *extract.Extractor
	cmp     *compare.Comparator
}

// New creates a Pipeline with all dependencies.
func New(client cpq.Client, st store.Store, decoder *grid.Decoder, ext *extract.Extractor, cmp *compare.Comparator) *Pipeline {
	return &Pipeline{
		client:  client,
		store:   st,
		decoder: decoder,
		ext:     ext,
		cmp:     cmp,
	}
}

// Extract decodes the document and runs field extraction without touching
// the CPQ side. Used by the extract command and as the document half of Run.
func (p *Pipeline) Extract(ctx context.Context, doc *fetcher.Document) (*model.DocumentRecord, error) {
	gridDoc, err := p.decoder.Decode(ctx, doc.Name, doc.Data)
	if err != nil {
		return nil, eris.Wrapf(err, "validate: decode %s", doc.Name)
	}
	return p.ext.Extract(gridDoc), nil
}

// Run audits one document against one transaction. The returned Run always
// carries the verdict or the failure; persistence problems are logged and
// never mask the audit outcome.
func (p *Pipeline) Run(ctx context.Context, transactionID string, doc *fetcher.Document) (*model.Run, error) {
	log := zap.L().With(
		zap.String("transaction_id", transactionID),
		zap.String("document", doc.Name),
	)
	log.Info("validate: starting run")
	start := time.Now()

	run := p.createRun(ctx, log, transactionID, doc.Name)

	api, err := p.client.FetchTransaction(ctx, transactionID)
	if err != nil {
		return p.fail(ctx, log, run, eris.Wrap(err, "validate: fetch transaction"))
	}

	lines, err := p.client.FetchTransactionLines(ctx, transactionID)
	if err != nil {
		return p.fail(ctx, log, run, eris.Wrap(err, "validate: fetch transaction lines"))
	}
	attachLines(api, lines)

	rec, err := p.Extract(ctx, doc)
	if err != nil {
		return p.fail(ctx, log, run, err)
	}
	log.Info("validate: document extracted",
		zap.Int("fields_found", rec.Metadata.FieldsFound),
		zap.Int("line_items", len(rec.LineItems)),
	)

	result := p.cmp.Compare(api, rec)
	result.TransactionID = transactionID
	result.DocumentName = doc.Name

	run.Status = model.RunStatusComplete
	run.Matches = result.Matches
	run.Mismatches = result.Mismatches
	run.Result = result
	if err := p.store.UpdateRunResult(ctx, run.ID, result); err != nil {
		log.Warn("validate: failed to persist result", zap.Error(err))
	}

	log.Info("validate: run finished",
		zap.String("status", result.OverallStatus),
		zap.Int("checked", result.TotalChecked),
		zap.Int("mismatches", result.Mismatches),
		zap.Duration("duration", time.Since(start)),
	)
	return run, nil
}

// createRun opens the run record. When the store is unreachable the run
// continues under a synthesized ID so the audit still produces a verdict.
func (p *Pipeline) createRun(ctx context.Context, log *zap.Logger, transactionID, documentName string) *model.Run {
	run, err := p.store.CreateRun(ctx, transactionID, documentName)
	if err != nil {
		log.Warn("validate: failed to create run record", zap.Error(err))
		now := time.Now().UTC()
		return &model.Run{
			ID:            uuid.New().String(),
			TransactionID: transactionID,
			DocumentName:  documentName,
			Status:        model.RunStatusRunning,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		log.Warn("validate: failed to update status", zap.Error(err))
	}
	run.Status = model.RunStatusRunning
	return run
}

// fail records a pipeline failure on the run and returns it alongside the
// original error.
func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, run *model.Run, err error) (*model.Run, error) {
	log.Error("validate: run failed", zap.Error(err))
	run.Status = model.RunStatusError
	run.Error = err.Error()
	if storeErr := p.store.UpdateRunError(ctx, run.ID, err.Error()); storeErr != nil {
		log.Warn("validate: failed to persist error", zap.Error(storeErr))
	}
	return run, err
}

// attachLines nests the separately-fetched lines under the transaction
// payload in the same envelope shape the API uses, so comparison sees one
// uniform document. Payloads that already embed their lines are left alone.
func attachLines(api map[string]any, lines []map[string]any) {
	if api == nil || len(lines) == 0 {
		return
	}
	if _, ok := api["transactionLine"]; ok {
		return
	}
	items := make([]any, len(lines))
	for i, line := range lines {
		items[i] = line
	}
	api["transactionLine"] = map[string]any{"items": items}
}
