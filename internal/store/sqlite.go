package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	retry resilience.Policy
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, retry: resilience.DefaultPolicy()}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	filing      TEXT NOT NULL,
	source      TEXT NOT NULL,
	source_hash TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'queued',
	summary     TEXT,
	error       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS hierarchy_nodes (
	company        TEXT NOT NULL,
	concept        TEXT NOT NULL,
	label          TEXT NOT NULL DEFAULT '',
	standard_label TEXT NOT NULL DEFAULT '',
	level          INTEGER NOT NULL DEFAULT 0,
	parent_id      TEXT NOT NULL DEFAULT '',
	ord            REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (company, concept)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, filing model.FilingMeta, source, sourceHash string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	filingJSON, err := json.Marshal(filing)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal filing")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, filing, source, source_hash, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, string(filingJSON), source, sourceHash, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:         id,
		Filing:     filing,
		Source:     source,
		SourceHash: sourceHash,
		Status:     model.RunStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET summary = ?, status = ?, error = '', updated_at = ? WHERE id = ?`,
		string(summaryJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

const sqliteRunColumns = `id, filing, source, source_hash, status, summary, error, created_at, updated_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) LatestBySource(ctx context.Context, source string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs WHERE source = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		source, string(model.RunStatusComplete),
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Company != "" {
		query += ` AND json_extract(filing, '$.company') = ?`
		args = append(args, filter.Company)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) HierarchyNodes(ctx context.Context, company string) ([]model.HierarchyNode, error) {
	return resilience.Value(ctx, s.retry, "sqlite.hierarchy_nodes", func(ctx context.Context) ([]model.HierarchyNode, error) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT company, concept, label, standard_label, level, parent_id, ord
			 FROM hierarchy_nodes WHERE company = ? ORDER BY level, ord, concept`,
			company,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: hierarchy nodes %s", company)
		}
		defer rows.Close()

		var nodes []model.HierarchyNode
		for rows.Next() {
			var n model.HierarchyNode
			if err := rows.Scan(&n.Company, &n.Concept, &n.Label, &n.StandardLabel, &n.Level, &n.ParentID, &n.Order); err != nil {
				return nil, eris.Wrap(err, "sqlite: scan hierarchy node")
			}
			nodes = append(nodes, n)
		}
		return nodes, eris.Wrap(rows.Err(), "sqlite: hierarchy nodes iterate")
	})
}

func (s *SQLiteStore) SaveHierarchyNodes(ctx context.Context, company string, nodes []model.HierarchyNode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin hierarchy tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM hierarchy_nodes WHERE company = ?`, company); err != nil {
		return eris.Wrapf(err, "sqlite: clear hierarchy %s", company)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hierarchy_nodes (company, concept, label, standard_label, level, parent_id, ord) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare hierarchy insert")
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, company, n.Concept, n.Label, n.StandardLabel, n.Level, n.ParentID, n.Order); err != nil {
			return eris.Wrapf(err, "sqlite: insert hierarchy node %s", n.Concept)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit hierarchy")
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var filingJSON string
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &filingJSON, &r.Source, &r.SourceHash, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := decodeRun(&r, []byte(filingJSON), nullBytes(summaryJSON)); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode run")
	}
	return &r, nil
}

func nullBytes(s sql.NullString) []byte {
	if !s.Valid {
		return nil
	}
	return []byte(s.String)
}

// decodeRun fills the JSON columns shared by both backends.
func decodeRun(r *model.Run, filing, summary []byte) error {
	if err := json.Unmarshal(filing, &r.Filing); err != nil {
		return eris.Wrap(err, "unmarshal filing")
	}
	if len(summary) > 0 && string(summary) != "null" {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(summary, r.Summary); err != nil {
			return eris.Wrap(err, "unmarshal summary")
		}
	}
	return nil
}
