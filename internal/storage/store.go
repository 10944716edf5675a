package storage

import (
	"context"
	"errors"
	"time"

	"mtlxgraph/internal/graph"
)

var ErrNotFound = errors.New("not found")

// Store combines node state and graph snapshot persistence.
type Store interface {
	NodeStateStore
	SnapshotStore
	Close() error
}

// NodeState is what survives a node instance between runs: the markers that
// decide whether the next evaluation has to rebuild, plus the last status.
type NodeState struct {
	Node      string
	Path      string
	Resolved  string
	Refresh   int
	Look      int
	Status    string
	BuildID   string
	UpdatedAt time.Time
}

// NodeStateStore defines operations for persisting node instance state.
type NodeStateStore interface {
	// SaveNodeState upserts the state of one node instance.
	SaveNodeState(ctx context.Context, st NodeState) error

	// LoadNodeState retrieves a node's state, or ErrNotFound.
	LoadNodeState(ctx context.Context, node string) (*NodeState, error)
}

// SnapshotNode is one generated node as recorded in a snapshot.
type SnapshotNode struct {
	ID   graph.NodeID
	Path string
	Kind graph.NodeKind
	Type string
}

type Snapshot struct {
	Node    string
	BuildID string
	Nodes   []SnapshotNode
	Edges   []graph.Edge
}

// SnapshotStore defines operations for persisting generated graphs.
type SnapshotStore interface {
	// SaveGraph replaces the node's snapshot with the current content of g.
	SaveGraph(ctx context.Context, node, buildID string, g *graph.Graph) error

	// LoadSnapshot retrieves the last snapshot saved for node.
	LoadSnapshot(ctx context.Context, node string) (*Snapshot, error)
}
