package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mtlxgraph/internal/graph"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS node_state (
			node TEXT PRIMARY KEY,
			path TEXT,
			resolved TEXT,
			refresh INTEGER,
			look INTEGER,
			status TEXT,
			build_id TEXT,
			updated_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS nodes (
			node TEXT,
			id INTEGER,
			build_id TEXT,
			path TEXT,
			kind TEXT,
			type TEXT,
			PRIMARY KEY (node, id)
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			node TEXT,
			from_plug TEXT,
			to_plug TEXT,
			kind TEXT,
			PRIMARY KEY (node, from_plug, to_plug)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_build ON nodes(build_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- NodeStateStore Implementation ---

func (s *SQLiteStore) SaveNodeState(ctx context.Context, st NodeState) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_state (node, path, resolved, refresh, look, status, build_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(node) DO UPDATE SET
			path=excluded.path,
			resolved=excluded.resolved,
			refresh=excluded.refresh,
			look=excluded.look,
			status=excluded.status,
			build_id=excluded.build_id,
			updated_at=excluded.updated_at
	`, st.Node, st.Path, st.Resolved, st.Refresh, st.Look, st.Status, st.BuildID, st.UpdatedAt.UnixNano())

	return err
}

func (s *SQLiteStore) LoadNodeState(ctx context.Context, node string) (*NodeState, error) {
	row := s.db.QueryRowContext(ctx, "SELECT node, path, resolved, refresh, look, status, build_id, updated_at FROM node_state WHERE node = ?", node)

	var st NodeState
	var updated int64
	if err := row.Scan(&st.Node, &st.Path, &st.Resolved, &st.Refresh, &st.Look, &st.Status, &st.BuildID, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("node state %q: %w", node, ErrNotFound)
		}
		return nil, err
	}
	st.UpdatedAt = time.Unix(0, updated)
	return &st, nil
}

// --- SnapshotStore Implementation ---

func (s *SQLiteStore) SaveGraph(ctx context.Context, node, buildID string, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The snapshot replaces whatever the previous build left behind.
	for _, q := range []string{"DELETE FROM nodes WHERE node = ?", "DELETE FROM edges WHERE node = ?"} {
		if _, err := tx.ExecContext(ctx, q, node); err != nil {
			return err
		}
	}

	// 1. Save Nodes
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (node, id, build_id, path, kind, type) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range g.SortedNodes() {
		if n == g.Root {
			continue
		}
		if _, err := stmt.ExecContext(ctx, node, int(n.ID), buildID, n.Path(), string(n.Kind), n.Type); err != nil {
			return err
		}
	}

	// 2. Save Edges
	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (node, from_plug, to_plug, kind) VALUES (?, ?, ?, ?)
		ON CONFLICT(node, from_plug, to_plug) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for _, e := range g.Edges() {
		if _, err := edgeStmt.ExecContext(ctx, node, e.From, e.To, e.Kind); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, node string) (*Snapshot, error) {
	snap := &Snapshot{Node: node}

	// 1. Load Nodes
	rows, err := s.db.QueryContext(ctx, "SELECT id, build_id, path, kind, type FROM nodes WHERE node = ? ORDER BY id", node)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n SnapshotNode
		var id int
		var kind string
		if err := rows.Scan(&id, &snap.BuildID, &n.Path, &kind, &n.Type); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n.ID = graph.NodeID(id)
		n.Kind = graph.NodeKind(kind)
		snap.Nodes = append(snap.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 2. Load Edges
	edgeRows, err := s.db.QueryContext(ctx, "SELECT from_plug, to_plug, kind FROM edges WHERE node = ? ORDER BY rowid", node)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var e graph.Edge
		if err := edgeRows.Scan(&e.From, &e.To, &e.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		snap.Edges = append(snap.Edges, e)
	}

	return snap, edgeRows.Err()
}
