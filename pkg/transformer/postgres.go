package transformer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kgx_nodes (
	id         TEXT PRIMARY KEY,
	category   TEXT[] NOT NULL DEFAULT '{}',
	attributes JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS kgx_edges (
	id          TEXT PRIMARY KEY,
	subject     TEXT NOT NULL,
	predicate   TEXT NOT NULL,
	object      TEXT NOT NULL,
	provided_by TEXT NOT NULL DEFAULT '',
	attributes  JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_kgx_edges_subject ON kgx_edges(subject);
CREATE INDEX IF NOT EXISTS idx_kgx_edges_object ON kgx_edges(object);
`

const upsertNodeSQL = `
INSERT INTO kgx_nodes (id, category, attributes) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
	category = CASE WHEN cardinality(EXCLUDED.category) > 0 THEN EXCLUDED.category ELSE kgx_nodes.category END,
	attributes = kgx_nodes.attributes || EXCLUDED.attributes`

const upsertEdgeSQL = `
INSERT INTO kgx_edges (id, subject, predicate, object, provided_by, attributes) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	subject = EXCLUDED.subject, predicate = EXCLUDED.predicate, object = EXCLUDED.object,
	provided_by = EXCLUDED.provided_by, attributes = EXCLUDED.attributes`

// PostgresTransformer stores a graph in two tables, kgx_nodes and
// kgx_edges, with attributes kept as jsonb.
type PostgresTransformer struct {
	base
	dsn   string
	pool  *pgxpool.Pool
	batch int
}

func NewPostgresTransformer(g *graph.Graph, dsn string, opts ...Option) *PostgresTransformer {
	return &PostgresTransformer{base: newBase(FormatPostgres, g, opts), dsn: dsn, batch: DefaultUnwindBatch}
}

func (t *PostgresTransformer) connect(ctx context.Context, location string) (*pgxpool.Pool, error) {
	if t.pool != nil {
		return t.pool, nil
	}
	if t.dsn == "" {
		t.dsn = location
	}
	cfg, err := pgxpool.ParseConfig(t.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	t.pool = pool
	return pool, nil
}

// Close releases the connection pool.
func (t *PostgresTransformer) Close() {
	if t.pool != nil {
		t.pool.Close()
		t.pool = nil
	}
}

// Parse reads both tables from the database at source, a postgres:// DSN.
func (t *PostgresTransformer) Parse(ctx context.Context, source, format string) (err error) {
	start := time.Now()
	defer func() { t.track("parse", start, err) }()

	pool, err := t.connect(ctx, source)
	if err != nil {
		return err
	}

	nodes, err := t.readNodes(ctx, pool)
	if err != nil {
		return err
	}
	edges, err := t.readEdges(ctx, pool)
	if err != nil {
		return err
	}
	t.metrics.RecordLoad(t.name, nodes, edges)
	return nil
}

func (t *PostgresTransformer) readNodes(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	rows, err := pool.Query(ctx, `SELECT id, category, attributes FROM kgx_nodes ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id    string
			cats  []string
			attrs []byte
		)
		if err := rows.Scan(&id, &cats, &attrs); err != nil {
			return count, fmt.Errorf("scan node: %w", err)
		}
		a, err := decodeAttributes(attrs)
		if err != nil {
			return count, graph.NewError("postgres load").Node(id).Cause(err).Err()
		}
		n := &graph.Node{ID: id, Category: cats, Attributes: a}
		if !t.admitNode(n) {
			continue
		}
		if _, err := t.graph.AddNode(n); err != nil {
			return count, err
		}
		count++
	}
	return count, rows.Err()
}

func (t *PostgresTransformer) readEdges(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	rows, err := pool.Query(ctx, `SELECT id, subject, predicate, object, provided_by, attributes FROM kgx_edges ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id, subject, predicate, object, providedBy string
			attrs                                      []byte
		)
		if err := rows.Scan(&id, &subject, &predicate, &object, &providedBy, &attrs); err != nil {
			return count, fmt.Errorf("scan edge: %w", err)
		}
		a, err := decodeAttributes(attrs)
		if err != nil {
			return count, graph.NewError("postgres load").Edge(subject, predicate, object).Cause(err).Err()
		}
		a[fieldID] = graph.StringValue(id)
		e := &graph.Edge{Subject: subject, Predicate: predicate, Object: object, ProvidedBy: providedBy, Attributes: a}
		if !t.admitEdge(e) {
			continue
		}
		if err := t.graph.AddEdge(e); err != nil {
			return count, err
		}
		count++
	}
	return count, rows.Err()
}

func decodeAttributes(raw []byte) (graph.Attributes, error) {
	a := make(graph.Attributes)
	if len(raw) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	if a == nil {
		a = make(graph.Attributes)
	}
	return a, nil
}

func encodeAttributes(a graph.Attributes) ([]byte, error) {
	if len(a) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Save upserts every node and edge in batches. Node attributes are merged
// with any stored ones; edges are replaced by id.
func (t *PostgresTransformer) Save(ctx context.Context, destination string, opts SaveOptions) (out string, err error) {
	start := time.Now()
	defer func() { t.track("save", start, err) }()

	pool, err := t.connect(ctx, destination)
	if err != nil {
		return "", err
	}

	batch := &pgx.Batch{}
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		err := pool.SendBatch(ctx, batch).Close()
		batch = &pgx.Batch{}
		return err
	}

	for n := range t.graph.Nodes() {
		attrs, err := encodeAttributes(n.Attributes)
		if err != nil {
			return "", fmt.Errorf("node %s: %w", n.ID, err)
		}
		cats := n.Category
		if cats == nil {
			cats = []string{}
		}
		batch.Queue(upsertNodeSQL, n.ID, cats, attrs)
		if batch.Len() >= t.batch {
			if err := flush(); err != nil {
				return "", fmt.Errorf("save nodes: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return "", fmt.Errorf("save nodes: %w", err)
	}

	for e := range t.graph.Edges() {
		id := edgeID(e)
		rest := e.Attributes.Clone()
		delete(rest, fieldID)
		attrs, err := encodeAttributes(rest)
		if err != nil {
			return "", fmt.Errorf("edge %s: %w", id, err)
		}
		batch.Queue(upsertEdgeSQL, id, e.Subject, e.Predicate, e.Object, e.ProvidedBy, attrs)
		if batch.Len() >= t.batch {
			if err := flush(); err != nil {
				return "", fmt.Errorf("save edges: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return "", fmt.Errorf("save edges: %w", err)
	}

	t.logger.Info("saved", logging.Int("nodes", t.graph.NodeCount()), logging.Int("edges", t.graph.EdgeCount()))
	return destination, nil
}
