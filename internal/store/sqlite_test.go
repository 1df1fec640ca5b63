package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahead-health/dq-cli/internal/model"
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

func testScope() model.Scope {
	min := model.Period{Year: 2024, Month: time.January}
	return model.Scope{CountryCode: "KEN", UnitLevel: 4, DateMin: &min}
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testScope())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "KEN", got.Scope.CountryCode)
	require.NotNil(t, got.Scope.DateMin)
	assert.Equal(t, "2024-01", got.Scope.DateMin.String())
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestSQLite_UpdateRunResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testScope())
	require.NoError(t, err)

	result := &model.RunResult{
		NRaw: 5, NResolved: 4, DuplicatesRemoved: 1, GridSize: 4, NOutliers: 2,
		ByIndicator: []model.CompletenessSummary{
			{Level: model.SummaryByIndicator, Key: "anc1", NExpected: 4, NReported: 3,
				PctReported: 75, NMissing: 1, PctMissing: 25, Applicable: true},
		},
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 5, got.Result.NRaw)
	require.Len(t, got.Result.ByIndicator, 1)
	assert.Equal(t, 75.0, got.Result.ByIndicator[0].PctReported)
}

func TestSQLite_UpdateRunResult_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunResult(context.Background(), "no-such-run", &model.RunResult{})
	assert.Error(t, err)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testScope())
	require.NoError(t, err)

	require.NoError(t, st.FailRun(ctx, run.ID, eris.New("source unreachable")))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Contains(t, got.Error, "source unreachable")
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r1, err := st.CreateRun(ctx, testScope())
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, model.Scope{CountryCode: "UGA", UnitLevel: 3})
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunResult(ctx, r1.ID, &model.RunResult{NRaw: 1}))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, r1.ID, complete[0].ID)

	ken, err := st.ListRuns(ctx, RunFilter{CountryCode: "KEN"})
	require.NoError(t, err)
	require.Len(t, ken, 1)
	assert.Equal(t, r1.ID, ken[0].ID)
}

func TestSQLite_ListRuns_Limit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := st.CreateRun(ctx, testScope())
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLite_ListRuns_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	runs, err := st.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
