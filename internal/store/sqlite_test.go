package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quote-audit/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleResult() *model.ValidationResult {
	res := &model.ValidationResult{
		TransactionID: "TX-001",
		DocumentName:  "quote.xlsx",
		Details: []model.FieldResult{
			{FieldName: "quoteNumber_t_c", Section: model.SectionHeader, Expected: "Q-1", Found: "Q-1", Match: true},
			{FieldName: "quoteNetPrice_t_c", Section: model.SectionSummary, Expected: 100.0, Found: 90.0, Match: false},
		},
	}
	res.Finalize()
	return res
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "TX-001", "quote.xlsx")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "TX-001", got.TransactionID)
	assert.Equal(t, "quote.xlsx", got.DocumentName)
	assert.Equal(t, model.RunStatusQueued, got.Status)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.Error)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "TX-001", "quote.xlsx")
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, got.Status)
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "nonexistent", model.RunStatusRunning)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLite_UpdateRunResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "TX-001", "quote.xlsx")
	require.NoError(t, err)

	res := sampleResult()
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, res))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 1, got.Matches)
	assert.Equal(t, 1, got.Mismatches)
	require.NotNil(t, got.Result)
	assert.Equal(t, model.StatusFailed, got.Result.OverallStatus)
	assert.Len(t, got.Result.Details, 2)
	assert.Equal(t, "quoteNumber_t_c", got.Result.Details[0].FieldName)
}

func TestSQLite_UpdateRunError(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "TX-001", "quote.xlsx")
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunError(ctx, run.ID, "cpq: transaction not found"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusError, got.Status)
	assert.Equal(t, "cpq: transaction not found", got.Error)
	assert.Nil(t, got.Result)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.CreateRun(ctx, "TX-001", "a.xlsx")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := st.CreateRun(ctx, "TX-002", "b.xlsx")
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Newest first
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
	// Listing omits the result payload
	assert.Nil(t, runs[0].Result)
}

func TestSQLite_ListRuns_FilterByStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run1, err := st.CreateRun(ctx, "TX-001", "a.xlsx")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "TX-002", "b.xlsx")
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunResult(ctx, run1.ID, sampleResult()))

	runs, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run1.ID, runs[0].ID)
	assert.Equal(t, 1, runs[0].Matches)
	assert.Equal(t, 1, runs[0].Mismatches)
}

func TestSQLite_ListRuns_FilterByTransactionID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateRun(ctx, "TX-001", "a.xlsx")
	require.NoError(t, err)
	want, err := st.CreateRun(ctx, "TX-002", "b.xlsx")
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{TransactionID: "TX-002"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, want.ID, runs[0].ID)
}

func TestSQLite_ListRuns_LimitAndOffset(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateRun(ctx, "TX-001", "a.xlsx")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	page1, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := st.ListRuns(ctx, RunFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.NotEqual(t, page1[0].ID, page2[0].ID)
}

func TestSQLite_ListRuns_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	runs, err := st.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Migrate(context.Background()))
}
