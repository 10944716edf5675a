// Package pipeline drives one MtlXInput node instance: it decides what an
// evaluation has to redo and runs the loader, builder and look compiler in order.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"mtlxgraph/internal/builder"
	"mtlxgraph/internal/config"
	"mtlxgraph/internal/graph"
	"mtlxgraph/internal/logger"
	"mtlxgraph/internal/look"
	"mtlxgraph/internal/mtlx"
	"mtlxgraph/internal/shader"
)

type Options struct {
	Name             string
	ApplyMaterials   bool
	ApplyAssignments bool
	ApplyAttributes  bool
	Library          *shader.Library
	Logger           *logger.Logger
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.Default(), nil, nil)
}

func OptionsFromConfig(cfg *config.Config, lib *shader.Library, log *logger.Logger) Options {
	return Options{
		Name:             cfg.Node.Name,
		ApplyMaterials:   cfg.Node.ApplyMaterials,
		ApplyAssignments: cfg.Node.ApplyAssignments,
		ApplyAttributes:  cfg.Node.ApplyAttributes,
		Library:          lib,
		Logger:           log,
	}
}

// BuildReport describes one evaluation.
type BuildReport struct {
	ID       string
	Node     string
	Phases   Phase
	Stages   []StageResult
	Status   string
	Duration time.Duration
}

// Failed returns the first stage error, if any.
func (r *BuildReport) Failed() error {
	for _, st := range r.Stages {
		if st.Err != nil {
			return st.Err
		}
	}
	return nil
}

// MtlXInput is a host node that splices a MaterialX document's materials,
// assignments and attribute overrides between its scene input and output.
type MtlXInput struct {
	Name  string
	Graph *graph.Graph
	State *State

	builder  *builder.Builder
	looks    *look.Compiler
	log      *logger.Logger
	detector ChangeDetector
	pending  Phase
}

func NewMtlXInput(opts Options) *MtlXInput {
	if opts.Name == "" {
		opts.Name = "MtlXInput"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	g := graph.NewGraph(opts.Name)
	log := opts.Logger.With("node", opts.Name)
	return &MtlXInput{
		Name:  opts.Name,
		Graph: g,
		State: &State{
			ApplyMaterials:   opts.ApplyMaterials,
			ApplyAssignments: opts.ApplyAssignments,
			ApplyAttributes:  opts.ApplyAttributes,
			Presets:          map[string]int{},
		},
		builder: builder.New(g, opts.Library, log),
		looks:   look.NewCompiler(g, log),
		log:     log,
	}
}

// OnPathChanged records a new document path.
func (n *MtlXInput) OnPathChanged(path string) Phase {
	n.State.Path = path
	p := n.detector.Detect(n.State)
	n.pending |= p
	return p
}

// OnRefreshRequested bumps the refresh counter and forgets the resolved path so
// the next evaluation rereads the document from disk.
func (n *MtlXInput) OnRefreshRequested() Phase {
	s := n.State
	s.Refresh++
	s.Resolved = ""
	s.BuildState = StateEmpty
	p := n.detector.Detect(s)
	n.pending |= p
	return p
}

// OnLookSelected switches the active look. A built node only re-runs the look
// compiler; otherwise the pending rebuild picks the new index up.
func (n *MtlXInput) OnLookSelected(idx int) Phase {
	s := n.State
	s.Look = idx
	if p := n.detector.Detect(s); p != PhaseNone {
		n.pending |= p
		return p
	}
	if s.BuildState != StateBuilt {
		return PhaseNone
	}
	n.pending |= PhaseLook
	return PhaseLook
}

// Restore applies persisted markers. The in-memory graph is empty after a
// restore, so a previously resolved document is rebuilt on the next evaluation.
func (n *MtlXInput) Restore(path, resolved string, refresh, lookIdx int) {
	s := n.State
	s.Path = path
	s.Resolved = resolved
	s.Refresh = refresh
	s.Look = lookIdx
	if resolved != "" {
		n.pending |= PhaseAll
	}
}

// Pending reports the phases the next Evaluate will run.
func (n *MtlXInput) Pending() Phase {
	return n.pending | n.detector.Detect(n.State)
}

// Evaluate runs whatever the recorded changes require. It never fails: a
// document that cannot be loaded leaves the node in pass-through with the
// error as its status.
func (n *MtlXInput) Evaluate() *BuildReport {
	start := time.Now()
	s := n.State
	phases := n.Pending()
	n.pending = PhaseNone

	report := &BuildReport{ID: uuid.NewString(), Node: n.Name, Phases: phases}
	switch {
	case phases.Has(PhaseLoad):
		report.Stages = NewBuildChain().Run(n)
		if err := report.Failed(); err != nil {
			builder.Teardown(n.Graph)
			s.Result = nil
			s.Document = nil
			s.Presets = map[string]int{}
			s.Assignments = 0
			s.Attributes = 0
			s.BuildState = StateEmpty
			s.Status = err.Error()
			n.log.Warn("document not loaded, passing scene through", "path", s.Path, "error", err)
		} else {
			s.BuildState = StateBuilt
			s.Status = fmt.Sprintf("%d Materials loaded in %.2f seconds", len(n.boxes()), time.Since(start).Seconds())
			n.log.Info(s.Status, "path", s.Path, "build", report.ID)
		}
		s.BuildID = report.ID
		s.Resolved = s.Path
	case phases.Has(PhaseLook):
		report.Stages = NewLookChain().Run(n)
	}

	report.Status = s.Status
	report.Duration = time.Since(start)
	return report
}

// ApplyLook runs the assignment and attribute passes for the look at idx and
// returns how many assignments and attribute overrides were made. Without a
// loaded document it tries to load one first and does nothing if that fails.
func (n *MtlXInput) ApplyLook(idx int) (assignments, attributes int) {
	s := n.State
	if s.Document == nil {
		doc, err := mtlx.ReadFile(s.Path)
		if err != nil {
			n.log.Debug("no document for look", "path", s.Path, "error", err)
			return 0, 0
		}
		s.Document = doc
		if s.BuildState == StateEmpty {
			s.BuildState = StateLoaded
		}
	}

	s.Look = idx
	s.Presets = look.Presets(s.Document)
	boxes := n.boxes()
	if s.ApplyAssignments {
		assignments = n.looks.ApplyAssignments(s.Document, boxes, idx)
	}
	if s.ApplyAttributes {
		attributes = n.looks.ApplyAttributes(s.Document, boxes, idx)
	}
	s.Assignments = assignments
	s.Attributes = attributes
	return assignments, attributes
}

// Status is the summary of the last build.
func (n *MtlXInput) Status() string {
	return n.State.Status
}

// Output is the plug feeding the node's scene output: the host input when
// passing through, otherwise the last generated box or attribute override.
func (n *MtlXInput) Output() *graph.Plug {
	return n.Graph.Root.Plug("out").Input()
}

func (n *MtlXInput) boxes() []*builder.MaterialBox {
	if n.State.Result == nil {
		return nil
	}
	return n.State.Result.Boxes
}
