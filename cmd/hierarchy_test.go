package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/store"
)

func writeNodes(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodes.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestImportHierarchyStoresNodes(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	path := writeNodes(t, `[
		{"concept":"us-gaap:Assets","label":"Total assets","level":0,"order":1},
		{"company":"other","concept":"us-gaap:AssetsCurrent","label":"Current assets","level":1,"parent_id":"us-gaap:Assets","order":2}
	]`)
	n, err := importHierarchy(ctx, st, "acme", path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	nodes, err := st.HierarchyNodes(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "us-gaap:Assets", nodes[0].Concept)
	assert.Equal(t, "us-gaap:Assets", nodes[1].ParentID)
	for _, node := range nodes {
		assert.Equal(t, "acme", node.Company)
	}

	other, err := st.HierarchyNodes(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)

	n, err = importHierarchy(ctx, st, "acme", writeNodes(t, `[{"concept":"us-gaap:Liabilities","level":0}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	nodes, err = st.HierarchyNodes(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, nodes, 1, "import replaces the previous hierarchy")
	assert.Equal(t, "us-gaap:Liabilities", nodes[0].Concept)
}

type recordingWriter struct {
	calls int
}

func (w *recordingWriter) SaveHierarchyNodes(context.Context, string, []model.HierarchyNode) error {
	w.calls++
	return nil
}

func TestImportHierarchyRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	w := &recordingWriter{}

	_, err := importHierarchy(ctx, w, "acme", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "hierarchy: open")

	_, err = importHierarchy(ctx, w, "acme", writeNodes(t, `{"concept":"x"}`))
	assert.ErrorContains(t, err, "decode nodes")

	_, err = importHierarchy(ctx, w, "acme", writeNodes(t, `[{"label":"no concept"}]`))
	assert.ErrorContains(t, err, "node 0 has no concept")

	_, err = importHierarchy(ctx, w, "", writeNodes(t, `[]`))
	assert.ErrorContains(t, err, "company is required")

	assert.Zero(t, w.calls)
}

func TestFormatHierarchy(t *testing.T) {
	var buf bytes.Buffer
	formatHierarchy(&buf, []model.HierarchyNode{
		{Concept: "us-gaap:Assets", Label: "Total assets", Level: 0, Order: 1},
		{Concept: "us-gaap:AssetsCurrent", Label: "Current assets", Level: 1, Order: 2, ParentID: "us-gaap:Assets"},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "CONCEPT")
	assert.Contains(t, lines[2], "Current assets")
	assert.Contains(t, lines[2], "us-gaap:Assets")
}
