package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/db"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	retry   resilience.Policy
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, retry: resilience.DefaultPolicy()}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	filing      JSONB NOT NULL,
	source      TEXT NOT NULL,
	source_hash TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'queued',
	summary     JSONB,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS hierarchy_nodes (
	company        TEXT NOT NULL,
	concept        TEXT NOT NULL,
	label          TEXT NOT NULL DEFAULT '',
	standard_label TEXT NOT NULL DEFAULT '',
	level          INTEGER NOT NULL DEFAULT 0,
	parent_id      TEXT NOT NULL DEFAULT '',
	ord            DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (company, concept)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_company ON runs((filing->>'company'));
`

var hierarchyColumns = []string{"company", "concept", "label", "standard_label", "level", "parent_id", "ord"}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, filing model.FilingMeta, source, sourceHash string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	filingJSON, err := json.Marshal(filing)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal filing")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, filing, source, source_hash, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, filingJSON, source, sourceHash, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) exec(ctx context.Context, op, runID, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: %s %s", op, runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	return s.exec(ctx, "update run status", runID,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}
	return s.exec(ctx, "complete run", runID,
		`UPDATE runs SET summary = $1, status = $2, error = '', updated_at = $3 WHERE id = $4`,
		summaryJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, reason string) error {
	return s.exec(ctx, "fail run", runID,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
}

const postgresRunColumns = `id, filing, source, source_hash, status, summary, error, created_at, updated_at`

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresRunColumns+` FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) LatestBySource(ctx context.Context, source string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresRunColumns+` FROM runs WHERE source = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1`,
		source, string(model.RunStatusComplete),
	)
	r, err := scanPgRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest run for %s", source)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + postgresRunColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Company != "" {
		query += fmt.Sprintf(` AND filing->>'company' = $%d`, argIdx)
		args = append(args, filter.Company)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list runs")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) HierarchyNodes(ctx context.Context, company string) ([]model.HierarchyNode, error) {
	return resilience.Value(ctx, s.retry, "postgres.hierarchy_nodes", func(ctx context.Context) ([]model.HierarchyNode, error) {
		rows, err := s.pool.Query(ctx,
			`SELECT company, concept, label, standard_label, level, parent_id, ord
			 FROM hierarchy_nodes WHERE company = $1 ORDER BY level, ord, concept`,
			company,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: hierarchy nodes %s", company)
		}
		defer rows.Close()

		var nodes []model.HierarchyNode
		for rows.Next() {
			var n model.HierarchyNode
			if err := rows.Scan(&n.Company, &n.Concept, &n.Label, &n.StandardLabel, &n.Level, &n.ParentID, &n.Order); err != nil {
				return nil, eris.Wrap(err, "postgres: scan hierarchy node")
			}
			nodes = append(nodes, n)
		}
		return nodes, eris.Wrap(rows.Err(), "postgres: hierarchy nodes iterate")
	})
}

func (s *PostgresStore) SaveHierarchyNodes(ctx context.Context, company string, nodes []model.HierarchyNode) error {
	rows := make([][]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []any{company, n.Concept, n.Label, n.StandardLabel, n.Level, n.ParentID, n.Order})
	}
	_, err := db.Replace(ctx, s.pool, db.ReplaceConfig{
		Table:     "hierarchy_nodes",
		KeyColumn: "company",
		Key:       company,
		Columns:   hierarchyColumns,
	}, rows)
	return eris.Wrapf(err, "postgres: save hierarchy %s", company)
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var filingJSON, summaryJSON []byte

	err := row.Scan(&r.ID, &filingJSON, &r.Source, &r.SourceHash, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan run")
	}
	if err := decodeRun(&r, filingJSON, summaryJSON); err != nil {
		return nil, err
	}
	return &r, nil
}
