package pipeline

import (
	"fmt"
	"time"

	"mtlxgraph/internal/builder"
	"mtlxgraph/internal/mtlx"
)

type StageStats struct {
	Count   int
	Skipped bool // disabled by an apply toggle
}

// Stage is one step of an evaluation, run against the node instance.
type Stage interface {
	Name() string
	Run(n *MtlXInput) (StageStats, error)
}

type StageResult struct {
	Stage       string
	Stats       StageStats
	NodesBefore int
	NodesAfter  int
	Duration    time.Duration
	Err         error
}

// Chain runs stages in order and stops at the first failing one.
type Chain struct {
	stages []Stage
}

func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// NewBuildChain is the full rebuild sequence: load, clear, materials, look.
func NewBuildChain() *Chain {
	return NewChain(loadStage{}, teardownStage{}, materialsStage{}, lookStage{})
}

// NewLookChain re-enters the look compiler only, reusing the built graph.
func NewLookChain() *Chain {
	return NewChain(lookStage{clear: true})
}

func (c *Chain) Run(n *MtlXInput) []StageResult {
	if n == nil {
		return nil
	}

	var out []StageResult
	for _, st := range c.stages {
		before := len(n.Graph.Nodes)
		start := time.Now()
		stats, err := st.Run(n)
		out = append(out, StageResult{
			Stage:       st.Name(),
			Stats:       stats,
			NodesBefore: before,
			NodesAfter:  len(n.Graph.Nodes),
			Duration:    time.Since(start),
			Err:         err,
		})
		if err != nil {
			break
		}
	}
	return out
}

type loadStage struct{}

func (loadStage) Name() string { return "load" }

func (loadStage) Run(n *MtlXInput) (StageStats, error) {
	s := n.State
	doc, err := mtlx.ReadFile(s.Path)
	if err != nil {
		s.Document = nil
		s.BuildState = StateEmpty
		return StageStats{}, err
	}
	s.Document = doc
	s.BuildState = StateLoaded
	return StageStats{Count: len(doc.Materials)}, nil
}

type teardownStage struct{}

func (teardownStage) Name() string { return "clear" }

func (teardownStage) Run(n *MtlXInput) (StageStats, error) {
	n.State.Result = nil
	return StageStats{Count: builder.Teardown(n.Graph)}, nil
}

type materialsStage struct{}

func (materialsStage) Name() string { return "materials" }

func (materialsStage) Run(n *MtlXInput) (StageStats, error) {
	s := n.State
	if !s.ApplyMaterials {
		return StageStats{Skipped: true}, nil
	}
	if s.Document == nil {
		return StageStats{}, fmt.Errorf("materials: no document loaded")
	}
	res := n.builder.Build(s.Document)
	n.builder.Connect(s.Document, res)
	s.Result = res
	return StageStats{Count: len(res.Boxes)}, nil
}

type lookStage struct {
	clear bool
}

func (lookStage) Name() string { return "look" }

func (st lookStage) Run(n *MtlXInput) (StageStats, error) {
	s := n.State
	if !s.ApplyAssignments && !s.ApplyAttributes {
		return StageStats{Skipped: true}, nil
	}
	if st.clear {
		n.looks.ClearAttributes(n.boxes())
	}
	assigned, attrs := n.ApplyLook(s.Look)
	return StageStats{Count: assigned + attrs}, nil
}
