package pipeline

import (
	"strings"

	"mtlxgraph/internal/builder"
	"mtlxgraph/internal/mtlx"
)

type BuildState int

const (
	StateEmpty BuildState = iota
	StateLoaded
	StateBuilt
)

func (s BuildState) String() string {
	switch s {
	case StateLoaded:
		return "LOADED"
	case StateBuilt:
		return "BUILT"
	default:
		return "EMPTY"
	}
}

// Phase is a set of work an evaluation has to redo.
type Phase uint8

const (
	PhaseLoad Phase = 1 << iota
	PhaseBuild
	PhaseLook

	PhaseNone Phase = 0
	PhaseAll        = PhaseLoad | PhaseBuild | PhaseLook
)

func (p Phase) Has(q Phase) bool { return p&q != 0 }

func (p Phase) String() string {
	if p == PhaseNone {
		return "none"
	}
	var parts []string
	if p.Has(PhaseLoad) {
		parts = append(parts, "load")
	}
	if p.Has(PhaseBuild) {
		parts = append(parts, "build")
	}
	if p.Has(PhaseLook) {
		parts = append(parts, "look")
	}
	return strings.Join(parts, "+")
}

// State is everything one node instance remembers between evaluations.
// Path, Resolved, Refresh and Look are the persisted markers; the rest is
// rebuilt from the document.
type State struct {
	Path     string
	Resolved string
	Refresh  int
	Look     int

	ApplyMaterials   bool
	ApplyAssignments bool
	ApplyAttributes  bool

	Document   *mtlx.Document
	BuildState BuildState
	Status     string
	BuildID    string
	Result     *builder.Result
	Presets    map[string]int

	Assignments int
	Attributes  int
}

// ChangeDetector decides which phases an evaluation must run.
type ChangeDetector struct{}

// Detect compares the requested path with the last resolved one. A differing
// path needs the full sequence; a failed load still resolves its path, so it is
// not retried until the path or the refresh counter changes.
func (ChangeDetector) Detect(s *State) Phase {
	if s.Path != s.Resolved {
		return PhaseAll
	}
	return PhaseNone
}
