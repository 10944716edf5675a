package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"mtlxgraph/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneDoc = `<materialx version="1.36">
  <material name="chrome">
    <shaderref name="surf" node="standard_surface" context="surfaceshader">
      <bindinput name="base_color" type="color3" value="0.8, 0.8, 0.8"/>
      <bindinput name="metalness" type="float" value="1.0"/>
    </shaderref>
    <shaderref name="bumps" node="noise" context="displacementshader"/>
  </material>
  <look name="default">
    <materialassign name="ma1" material="chrome" geom="/root/car/bumper"/>
    <visibility name="v1" geom="/root/car/bumper" vistype="camera" visible="false"/>
    <visibility name="v2" geom="/root/car/bumper" vistype="shadow" visible="true"/>
    <visibility name="v3" geom="/root/car/bumper" vistype="volume" visible="false"/>
  </look>
  <look name="hidden">
    <materialassign name="ma2" material="chrome" geom="/root/truck/grill/mesh"/>
    <visibility name="v4" geom="/root/truck" vistype="camera" visible="false"/>
  </look>
</materialx>`

const twoMaterialScene = `<materialx version="1.36">
  <material name="chrome"><shaderref name="surf" node="standard_surface"/></material>
  <material name="rubber"><shaderref name="surf" node="standard_surface"/></material>
</materialx>`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.mtlx")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newNode() *MtlXInput {
	return NewMtlXInput(DefaultOptions())
}

func TestEvaluate_EndToEnd(t *testing.T) {
	n := newNode()
	path := writeDoc(t, sceneDoc)

	assert.Equal(t, PhaseAll, n.OnPathChanged(path))
	report := n.Evaluate()
	require.NoError(t, report.Failed())

	s := n.State
	assert.Equal(t, StateBuilt, s.BuildState)
	assert.Equal(t, path, s.Resolved)
	assert.Regexp(t, `^1 Materials loaded in \d+\.\d\d seconds$`, n.Status())
	assert.NotEmpty(t, s.BuildID)
	assert.Equal(t, map[string]int{"preset:default": 0, "preset:hidden": 1}, s.Presets)

	root := n.Graph.Root
	boxes := root.ChildrenOfKind(graph.KindBox)
	require.Len(t, boxes, 1)
	assert.Len(t, boxes[0].ChildrenOfKind(graph.KindShader), 2)
	assert.Len(t, boxes[0].ChildrenOfKind(graph.KindDisplacement), 1)
	assert.Equal(t, []string{"/root/car/"}, s.Result.Boxes[0].PathFilter.Plug("paths").Value())

	attrs := root.ChildrenOfKind(graph.KindAttributes)
	filters := root.ChildrenOfKind(graph.KindPathFilter)
	require.Len(t, attrs, 1)
	require.Len(t, filters, 1)
	assert.Same(t, attrs[0].Plug("out"), n.Output())
	assert.Equal(t, 1, s.Assignments)
	assert.Equal(t, 1, s.Attributes)

	t.Run("Stages", func(t *testing.T) {
		var names []string
		for _, st := range report.Stages {
			names = append(names, st.Stage)
		}
		assert.Equal(t, []string{"load", "clear", "materials", "look"}, names)
	})

	t.Run("Unchanged input does nothing", func(t *testing.T) {
		nodes := len(n.Graph.Nodes)
		again := n.Evaluate()
		assert.Equal(t, PhaseNone, again.Phases)
		assert.Empty(t, again.Stages)
		assert.Len(t, n.Graph.Nodes, nodes)
	})
}

func TestEvaluate_MissingFilePassesThrough(t *testing.T) {
	n := newNode()
	n.OnPathChanged("/nonexistent.mtlx")

	report := n.Evaluate()
	require.Error(t, report.Failed())

	assert.Same(t, n.Graph.Root.Plug("in"), n.Output())
	assert.Empty(t, n.Graph.Root.Children())
	assert.NotEmpty(t, n.Status())
	assert.NotContains(t, n.Status(), "Materials loaded")
	assert.Equal(t, StateEmpty, n.State.BuildState)
	assert.Equal(t, "/nonexistent.mtlx", n.State.Resolved)
	assert.Equal(t, PhaseNone, n.Pending())
}

func TestEvaluate_BrokenPathClearsPreviousBuild(t *testing.T) {
	n := newNode()
	n.OnPathChanged(writeDoc(t, sceneDoc))
	n.Evaluate()
	require.NotEmpty(t, n.Graph.Root.Children())

	n.OnPathChanged(filepath.Join(t.TempDir(), "gone.mtlx"))
	n.Evaluate()
	assert.Empty(t, n.Graph.Root.Children())
	assert.Same(t, n.Graph.Root.Plug("in"), n.Output())
}

func TestEvaluate_BrokenPathClearsLookState(t *testing.T) {
	n := newNode()
	n.OnPathChanged(writeDoc(t, sceneDoc))
	n.Evaluate()
	require.NotEmpty(t, n.State.Presets)
	require.Equal(t, 1, n.State.Assignments)

	n.OnPathChanged(filepath.Join(t.TempDir(), "gone.mtlx"))
	n.Evaluate()
	s := n.State
	assert.Nil(t, s.Document)
	assert.Empty(t, s.Presets)
	assert.Zero(t, s.Assignments)
	assert.Zero(t, s.Attributes)
	assert.Equal(t, StateEmpty, s.BuildState)
}

func TestOnLookSelected_ReentersLookCompilerOnly(t *testing.T) {
	n := newNode()
	n.OnPathChanged(writeDoc(t, sceneDoc))
	n.Evaluate()
	box := n.State.Result.Boxes[0]
	shaders := box.Box.ChildrenOfKind(graph.KindShader)

	assert.Equal(t, PhaseLook, n.OnLookSelected(1))
	report := n.Evaluate()
	require.Len(t, report.Stages, 1)
	assert.Equal(t, "look", report.Stages[0].Stage)

	assert.Same(t, box, n.State.Result.Boxes[0], "shader graph is reused")
	assert.Equal(t, shaders, box.Box.ChildrenOfKind(graph.KindShader))
	assert.Equal(t, []string{"/root/truck/grill/"}, box.PathFilter.Plug("paths").Value())

	attrs := n.Graph.Root.ChildrenOfKind(graph.KindAttributes)
	require.Len(t, attrs, 1, "previous look's overrides are replaced")
	assert.Same(t, box.Box.Plug("out"), attrs[0].Plug("in").Input())

	n.OnLookSelected(0)
	n.Evaluate()
	assert.Len(t, n.Graph.Root.ChildrenOfKind(graph.KindAttributes), 1)
	assert.Equal(t, 0, n.State.Look)
}

func TestOnLookSelected_BeforeBuild(t *testing.T) {
	n := newNode()
	assert.Equal(t, PhaseNone, n.OnLookSelected(1))

	n.OnPathChanged(writeDoc(t, sceneDoc))
	assert.Equal(t, PhaseAll, n.OnLookSelected(1))
	n.Evaluate()
	assert.Equal(t, []string{"/root/truck/grill/"}, n.State.Result.Boxes[0].PathFilter.Plug("paths").Value())
}

func TestOnRefreshRequested_RereadsDocument(t *testing.T) {
	n := newNode()
	path := writeDoc(t, sceneDoc)
	n.OnPathChanged(path)
	n.Evaluate()
	require.Len(t, n.State.Result.Boxes, 1)

	require.NoError(t, os.WriteFile(path, []byte(twoMaterialScene), 0o644))
	assert.Equal(t, PhaseNone, n.Pending(), "a changed file alone does not trigger a rebuild")

	assert.Equal(t, PhaseAll, n.OnRefreshRequested())
	assert.Equal(t, "", n.State.Resolved)
	assert.Equal(t, StateEmpty, n.State.BuildState)

	n.Evaluate()
	assert.Equal(t, 1, n.State.Refresh)
	assert.Len(t, n.Graph.Root.ChildrenOfKind(graph.KindBox), 2)
	assert.Empty(t, n.Graph.Root.ChildrenOfKind(graph.KindAttributes))
	assert.Regexp(t, `^2 Materials loaded`, n.Status())
}

func TestEvaluate_RebuildIsIdempotent(t *testing.T) {
	n := newNode()
	n.OnPathChanged(writeDoc(t, sceneDoc))
	n.Evaluate()
	nodes := len(n.Graph.Nodes)
	edges := len(n.Graph.Edges())

	n.OnRefreshRequested()
	n.Evaluate()
	assert.Len(t, n.Graph.Nodes, nodes)
	assert.Len(t, n.Graph.Edges(), edges)
}

func TestEvaluate_ApplyToggles(t *testing.T) {
	opts := DefaultOptions()
	opts.ApplyMaterials = false
	opts.ApplyAssignments = false
	n := NewMtlXInput(opts)
	n.OnPathChanged(writeDoc(t, sceneDoc))

	report := n.Evaluate()
	require.NoError(t, report.Failed())
	assert.True(t, report.Stages[2].Stats.Skipped)

	root := n.Graph.Root
	assert.Empty(t, root.ChildrenOfKind(graph.KindBox))
	attrs := root.ChildrenOfKind(graph.KindAttributes)
	require.Len(t, attrs, 1)
	assert.Same(t, root.Plug("in"), attrs[0].Plug("in").Input())
	assert.Regexp(t, `^0 Materials loaded`, n.Status())
}

func TestApplyLook_LoadsDocumentWhenMissing(t *testing.T) {
	n := newNode()
	n.State.Path = "/nonexistent.mtlx"
	a, v := n.ApplyLook(0)
	assert.Zero(t, a)
	assert.Zero(t, v)
	assert.Nil(t, n.State.Document)

	n.State.Path = writeDoc(t, sceneDoc)
	_, v = n.ApplyLook(0)
	assert.Equal(t, 1, v)
	require.NotNil(t, n.State.Document)
	assert.Equal(t, StateLoaded, n.State.BuildState)
}

func TestRestore_SchedulesRebuild(t *testing.T) {
	n := newNode()
	path := writeDoc(t, sceneDoc)
	n.Restore(path, path, 3, 1)

	assert.Equal(t, PhaseAll, n.Pending())
	n.Evaluate()
	assert.Equal(t, 3, n.State.Refresh)
	assert.Equal(t, []string{"/root/truck/grill/"}, n.State.Result.Boxes[0].PathFilter.Plug("paths").Value())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "none", PhaseNone.String())
	assert.Equal(t, "load+build+look", PhaseAll.String())
	assert.Equal(t, "look", PhaseLook.String())
}
