package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/resilience"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{
		pool:  mock,
		retry: resilience.Policy{Attempts: 2, Backoff: time.Millisecond, MaxBackoff: time.Millisecond},
	}
	return s, mock
}

var runColumns = []string{"id", "filing", "source", "source_hash", "status", "summary", "error", "created_at", "updated_at"}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "/filings/acme", "hash", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), testFiling("acme"), "/filings/acme", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, filing, source, source_hash, status, summary, error, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(runColumns).AddRow(
			"run-1", []byte(`{"company":"acme","market":"sec"}`), "/filings/acme", "h", "complete",
			[]byte(`{"industry":"banking","ratios_valid":12}`), "", now, now,
		))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", run.Filing.Company)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Summary)
	assert.Equal(t, "banking", run.Summary.Industry)
	assert.Equal(t, 12, run.Summary.RatiosValid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET summary = \$1`).
		WithArgs(pgxmock.AnyArg(), "complete", pgxmock.AnyArg(), "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "gone", &model.RunSummary{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status = \$1, error = \$2`).
		WithArgs("failed", "boom", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailRun(context.Background(), "run-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`WHERE true AND status = \$1 AND filing->>'company' = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("complete", "acme", 10, 5).
		WillReturnRows(pgxmock.NewRows(runColumns).
			AddRow("r1", []byte(`{"company":"acme"}`), "/a", "", "complete", nil, "", now, now).
			AddRow("r2", []byte(`{"company":"acme"}`), "/a", "", "complete", nil, "", now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusComplete, Company: "acme", Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Nil(t, runs[0].Summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_HierarchyNodes_RetriesTransient(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM hierarchy_nodes WHERE company = \$1`).
		WithArgs("acme").
		WillReturnError(resilience.Transient(errors.New("connection reset by peer")))
	mock.ExpectQuery(`FROM hierarchy_nodes WHERE company = \$1`).
		WithArgs("acme").
		WillReturnRows(pgxmock.NewRows(hierarchyColumns).
			AddRow("acme", "us-gaap:Assets", "Total assets", "Assets", 0, "", 0.0))

	nodes, err := s.HierarchyNodes(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Total assets", nodes[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_HierarchyNodes_PermanentError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM hierarchy_nodes`).
		WithArgs("acme").
		WillReturnError(errors.New(`relation "hierarchy_nodes" does not exist`))

	_, err := s.HierarchyNodes(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: hierarchy nodes acme")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveHierarchyNodes(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "hierarchy_nodes" WHERE "company" = \$1`).
		WithArgs("acme").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCopyFrom(pgx.Identifier{"hierarchy_nodes"}, hierarchyColumns).WillReturnResult(1)
	mock.ExpectCommit()

	err := s.SaveHierarchyNodes(context.Background(), "acme", []model.HierarchyNode{
		{Concept: "us-gaap:Assets", Label: "Total assets"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
