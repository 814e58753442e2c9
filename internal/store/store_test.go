package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testFiling(company string) model.FilingMeta {
	return model.FilingMeta{
		FilingID: company + "-10k-2024",
		Company:  company,
		Market:   model.MarketSEC,
		Form:     "10-K",
		Date:     "2024-12-31",
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testFiling("acme"), "/filings/acme", "abc123")
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusQueued, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, "acme", got.Filing.Company)
		assert.Equal(t, model.MarketSEC, got.Filing.Market)
		assert.Equal(t, "/filings/acme", got.Source)
		assert.Equal(t, "abc123", got.SourceHash)
		assert.Nil(t, got.Summary)
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRun(context.Background(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CompleteRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testFiling("acme"), "/filings/acme", "h1")
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

		summary := &model.RunSummary{
			Industry:          "general",
			FactsExtracted:    120,
			ComponentsMatched: 30,
			ComponentsTotal:   46,
			RatiosValid:       20,
			RatiosTotal:       46,
			Output:            json.RawMessage(`{"ok":true}`),
		}
		require.NoError(t, s.CompleteRun(ctx, run.ID, summary))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		require.NotNil(t, got.Summary)
		assert.Equal(t, "general", got.Summary.Industry)
		assert.Equal(t, 20, got.Summary.RatiosValid)
		assert.JSONEq(t, `{"ok":true}`, string(got.Summary.Output))
	})

	t.Run("FailRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testFiling("acme"), "/filings/acme", "")
		require.NoError(t, err)
		require.NoError(t, s.FailRun(ctx, run.ID, "no facts"))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "no facts", got.Error)
	})

	t.Run("UpdateMissingRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		assert.ErrorIs(t, s.UpdateRunStatus(ctx, "missing", model.RunStatusRunning), ErrNotFound)
		assert.ErrorIs(t, s.CompleteRun(ctx, "missing", &model.RunSummary{}), ErrNotFound)
		assert.ErrorIs(t, s.FailRun(ctx, "missing", "x"), ErrNotFound)
	})

	t.Run("ListRunsFilters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, err := s.CreateRun(ctx, testFiling("acme"), "/filings/acme", "")
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, testFiling("globex"), "/filings/globex", "")
		require.NoError(t, err)
		require.NoError(t, s.CompleteRun(ctx, a.ID, &model.RunSummary{Industry: "general"}))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		done, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, a.ID, done[0].ID)

		byCompany, err := s.ListRuns(ctx, RunFilter{Company: "globex"})
		require.NoError(t, err)
		require.Len(t, byCompany, 1)
		assert.Equal(t, "globex", byCompany[0].Filing.Company)

		page, err := s.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})

	t.Run("LatestBySource", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.LatestBySource(ctx, "/filings/acme")
		assert.ErrorIs(t, err, ErrNotFound)

		run, err := s.CreateRun(ctx, testFiling("acme"), "/filings/acme", "h1")
		require.NoError(t, err)
		_, err = s.LatestBySource(ctx, "/filings/acme")
		assert.ErrorIs(t, err, ErrNotFound, "queued runs do not count")

		require.NoError(t, s.CompleteRun(ctx, run.ID, &model.RunSummary{}))
		got, err := s.LatestBySource(ctx, "/filings/acme")
		require.NoError(t, err)
		assert.Equal(t, "h1", got.SourceHash)
	})

	t.Run("HierarchyNodesRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		nodes := []model.HierarchyNode{
			{Concept: "us-gaap:AssetsCurrent", Label: "Total current assets", StandardLabel: "Assets, Current", Level: 1, ParentID: "us-gaap:Assets", Order: 1},
			{Concept: "us-gaap:Assets", Label: "Total assets", StandardLabel: "Assets", Level: 0, Order: 0},
		}
		require.NoError(t, s.SaveHierarchyNodes(ctx, "acme", nodes))

		got, err := s.HierarchyNodes(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "us-gaap:Assets", got[0].Concept)
		assert.Equal(t, "acme", got[1].Company)
		assert.Equal(t, "us-gaap:Assets", got[1].ParentID)
		assert.Equal(t, "Assets, Current", got[1].StandardLabel)

		// Saving again replaces the set.
		require.NoError(t, s.SaveHierarchyNodes(ctx, "acme", nodes[:1]))
		got, err = s.HierarchyNodes(ctx, "acme")
		require.NoError(t, err)
		assert.Len(t, got, 1)

		other, err := s.HierarchyNodes(ctx, "globex")
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
