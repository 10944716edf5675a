package builder

import (
	"strings"
	"testing"

	"mtlxgraph/internal/graph"
	"mtlxgraph/internal/logger"
	"mtlxgraph/internal/mtlx"
	"mtlxgraph/internal/shader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoMaterialDoc = `<materialx version="1.36">
  <nodegraph name="NG">
    <image name="tex" type="color3">
      <parameter name="filename" type="filename" value="wood.tx"/>
    </image>
    <multiply name="tint" type="color3">
      <input name="input1" type="color3" nodename="tex"/>
      <input name="input2" type="color3" value="0.5, 0.5, 0.5"/>
    </multiply>
    <rgb_to_float name="lum" type="float">
      <input name="input" type="color3" nodename="tex"/>
    </rgb_to_float>
    <output name="color" type="color3" nodename="tint"/>
    <output name="rough" type="float" nodename="lum"/>
    <output name="raw" type="color4" nodename="tex"/>
  </nodegraph>
  <material name="mat/wood">
    <shaderref name="surf" node="standard_surface" context="surfaceshader">
      <bindinput name="base_color" type="color3" nodegraph="NG" output="color"/>
      <bindinput name="specular_roughness" type="float" nodegraph="NG" output="rough"/>
      <bindinput name="specular_color" type="color3" value="1.0, 0.5, 0.2"/>
      <bindinput name="base" type="float" value="0.9"/>
      <bindinput name="metalness" type="float"/>
      <bindinput name="not_declared" type="float" value="1"/>
    </shaderref>
    <shaderref name="disp" node="noise" context="displacementshader">
      <bindinput name="octaves" type="integer" value="3"/>
    </shaderref>
  </material>
  <material name="mat:metal">
    <shaderref name="surf" node="standard_surface">
      <bindinput name="metalness" type="float" value="1"/>
      <bindinput name="opacity" type="color3" nodegraph="NG" output="raw"/>
    </shaderref>
  </material>
</materialx>`

func build(t *testing.T, src string) (*graph.Graph, *Result) {
	t.Helper()
	doc, err := mtlx.Read(strings.NewReader(src))
	require.NoError(t, err)

	g := graph.NewGraph("MtlXInput")
	b := New(g, shader.Default(), logger.Nop())
	res := b.Build(doc)
	b.Connect(doc, res)
	return g, res
}

func TestBuild_OneBoxPerMaterialInOrder(t *testing.T) {
	g, res := build(t, twoMaterialDoc)

	boxes := g.Root.ChildrenOfKind(graph.KindBox)
	require.Len(t, boxes, 2)
	assert.Equal(t, "mat_wood", boxes[0].Name)
	assert.Equal(t, "mat_metal", boxes[1].Name)
	require.Len(t, res.Boxes, 2)

	t.Run("Chaining", func(t *testing.T) {
		assert.Same(t, g.Root.Plug("in"), boxes[0].Plug("in").Input())
		assert.Same(t, boxes[0].Plug("out"), boxes[1].Plug("in").Input())
		assert.Same(t, boxes[1].Plug("out"), g.Root.Plug("out").Input())
	})

	t.Run("Assignments chained inside box", func(t *testing.T) {
		mb := res.Boxes[0]
		require.Len(t, mb.Assignments, 2)
		assert.Same(t, mb.BoxIn.Plug("out"), mb.Assignments[0].Plug("in").Input())
		assert.Same(t, mb.Assignments[0].Plug("out"), mb.Assignments[1].Plug("in").Input())
		assert.Same(t, mb.Assignments[1].Plug("out"), mb.BoxOut.Plug("in").Input())
		for _, a := range mb.Assignments {
			assert.Same(t, mb.PathFilter.Plug("out"), a.Plug("filter").Input())
		}
	})
}

func TestBuild_DisplacementRewiresAssignment(t *testing.T) {
	_, res := build(t, twoMaterialDoc)
	mb := res.Boxes[0]

	dsps := mb.Box.ChildrenOfKind(graph.KindDisplacement)
	require.Len(t, dsps, 1)
	disp := mb.Shaders[1]
	assert.Same(t, disp.Plug("out"), dsps[0].Plug("map").Input())
	assert.Same(t, dsps[0].Plug("out"), mb.Assignments[1].Plug("shader").Input())
	assert.Same(t, mb.Shaders[0].Plug("out"), mb.Assignments[0].Plug("shader").Input())
	assert.Equal(t, 1, res.Displacement)
}

func TestBuild_LiteralValues(t *testing.T) {
	_, res := build(t, twoMaterialDoc)
	surf := res.Boxes[0].Shaders[0]

	assert.Equal(t, []float64{1.0, 0.5, 0.2}, surf.Plug("parameters", "specular_color").Value())
	assert.Equal(t, 0.9, surf.Plug("parameters", "base").Value())
	assert.Equal(t, 0.0, surf.Plug("parameters", "metalness").Value(), "unbound input keeps its default")
	assert.Equal(t, 3, res.Boxes[0].Shaders[1].Plug("parameters", "octaves").Value())

	tex := res.Boxes[0].Box.Child("tex")
	require.NotNil(t, tex)
	assert.Equal(t, "wood.tx", tex.Plug("parameters", "filename").Value())
}

func TestBuild_GraphNodesDeduplicatedPerBox(t *testing.T) {
	_, res := build(t, twoMaterialDoc)
	wood := res.Boxes[0].Box

	shaders := wood.ChildrenOfKind(graph.KindShader)
	names := make([]string, 0, len(shaders))
	for _, s := range shaders {
		names = append(names, s.Name)
	}
	// tex is reached through both tint and lum but created once.
	assert.ElementsMatch(t, []string{"surf", "tint", "tex", "lum", "disp"}, names)

	metal := res.Boxes[1].Box
	require.NotNil(t, metal.Child("tex"), "each box gets its own copy of shared graph nodes")
	assert.Nil(t, metal.Child("tint"))
}

func TestConnect_CoercionApplied(t *testing.T) {
	_, res := build(t, twoMaterialDoc)
	wood := res.Boxes[0]
	surf := wood.Shaders[0]
	tint := wood.Box.Child("tint")
	tex := wood.Box.Child("tex")
	lum := wood.Box.Child("lum")

	// multiply(rgb) -> base_color(rgb): direct.
	assert.Same(t, tint.Plug("out"), surf.Plug("parameters", "base_color").Input())
	// rgb_to_float(float) -> specular_roughness(float): direct.
	assert.Same(t, lum.Plug("out"), surf.Plug("parameters", "specular_roughness").Input())
	// image(rgba) -> multiply.input1(rgb): first three channels.
	in1 := tint.Plug("parameters", "input1")
	assert.Nil(t, in1.Input())
	assert.Same(t, tex.Plug("out").Child("g"), in1.Child("g").Input())
	assert.Empty(t, tex.Plug("out").Child("a").Outputs())

	metal := res.Boxes[1]
	opacity := metal.Shaders[0].Plug("parameters", "opacity")
	assert.Same(t, metal.Box.Child("tex").Plug("out").Child("b"), opacity.Child("b").Input())

	assert.Zero(t, res.Connections.Mismatched)
}

func TestTeardown_RemovesGeneratedAndRestoresPassThrough(t *testing.T) {
	g, _ := build(t, twoMaterialDoc)
	attrs := g.NewAttributes(g.Root)
	g.NewPathFilter(g.Root)
	require.NotNil(t, attrs)

	removed := Teardown(g)
	assert.Equal(t, 4, removed)
	assert.Empty(t, g.Root.Children())
	assert.Same(t, g.Root.Plug("in"), g.Root.Plug("out").Input())
	assert.Len(t, g.Nodes, 1)
}

func TestBuild_RebuildIsIdempotent(t *testing.T) {
	doc, err := mtlx.Read(strings.NewReader(twoMaterialDoc))
	require.NoError(t, err)

	g := graph.NewGraph("MtlXInput")
	b := New(g, nil, nil)

	res := b.Build(doc)
	b.Connect(doc, res)
	first := len(g.Nodes)
	firstEdges := len(g.Edges())

	Teardown(g)
	res = b.Build(doc)
	b.Connect(doc, res)

	assert.Equal(t, first, len(g.Nodes))
	assert.Equal(t, firstEdges, len(g.Edges()))
	assert.Equal(t, "mat_wood", g.Root.ChildrenOfKind(graph.KindBox)[0].Name)
}

func TestBuild_NameCollisionIsDisambiguated(t *testing.T) {
	g, res := build(t, `<materialx version="1.36">
  <nodegraph name="NG">
    <image name="a:b" type="color3"/>
    <image name="a/b" type="color3"/>
    <add name="sum" type="color3">
      <input name="input1" type="color3" nodename="a:b"/>
      <input name="input2" type="color3" nodename="a/b"/>
    </add>
    <output name="out" type="color3" nodename="sum"/>
  </nodegraph>
  <material name="m">
    <shaderref name="s" node="standard_surface">
      <bindinput name="base_color" type="color3" nodegraph="NG" output="out"/>
    </shaderref>
  </material>
</materialx>`)

	box := res.Boxes[0].Box
	require.NotNil(t, box.Child("a_b"))
	require.NotNil(t, box.Child("a_b1"))
	assert.Equal(t, 1, res.Collisions)

	sum := box.Child("sum")
	assert.Same(t, box.Child("a_b").Plug("out").Child("r"), sum.Plug("parameters", "input1").Child("r").Input())
	assert.Same(t, box.Child("a_b1").Plug("out").Child("r"), sum.Plug("parameters", "input2").Child("r").Input())
	assert.Len(t, g.Root.ChildrenOfKind(graph.KindBox), 1)
}

func TestBuild_TypeMismatchIsCountedAndSkipped(t *testing.T) {
	g, res := build(t, `<materialx version="1.36">
  <nodegraph name="NG">
    <mix_shader name="mix" type="surfaceshader"/>
    <image name="tex" type="color3"/>
    <multiply name="tint" type="color3">
      <input name="input1" type="color3" nodename="mix"/>
      <input name="input2" type="color3" nodename="tex"/>
    </multiply>
    <output name="out" type="color3" nodename="tint"/>
  </nodegraph>
  <material name="m">
    <shaderref name="s" node="standard_surface">
      <bindinput name="base" type="color3" value="1, 0.5, 0.2"/>
      <bindinput name="metalness" type="string" value="shiny"/>
      <bindinput name="specular" type="float" value="0.25"/>
      <bindinput name="base_color" type="color3" nodegraph="NG" output="out"/>
    </shaderref>
  </material>
</materialx>`)

	assert.Equal(t, 2, res.Values.Mismatched)
	assert.Equal(t, 1, res.Connections.Mismatched)

	box := res.Boxes[0].Box
	surf := res.Boxes[0].Shaders[0]
	tint := box.Child("tint")
	require.NotNil(t, tint)

	t.Run("Mismatched bindings keep their defaults", func(t *testing.T) {
		assert.Equal(t, 0.8, surf.Plug("parameters", "base").Value())
		assert.Equal(t, 0.0, surf.Plug("parameters", "metalness").Value())
		in1 := tint.Plug("parameters", "input1")
		assert.Nil(t, in1.Input())
		assert.Nil(t, in1.Child("r").Input())
		assert.Empty(t, box.Child("mix").Plug("out").Outputs())
	})

	t.Run("The rest of the material is built", func(t *testing.T) {
		assert.Equal(t, 0.25, surf.Plug("parameters", "specular").Value())
		assert.Same(t, tint.Plug("out"), surf.Plug("parameters", "base_color").Input())
		assert.Same(t, box.Child("tex").Plug("out").Child("r"), tint.Plug("parameters", "input2").Child("r").Input())
		assert.Len(t, res.Boxes[0].Assignments, 1)
		assert.Same(t, res.Boxes[0].Box.Plug("out"), g.Root.Plug("out").Input())
	})
}

func TestBuild_MaterialNameCollisionIsCounted(t *testing.T) {
	g, res := build(t, `<materialx version="1.36">
  <material name="a/b"><shaderref name="s" node="standard_surface"/></material>
  <material name="a:b"><shaderref name="s" node="standard_surface"/></material>
</materialx>`)

	boxes := g.Root.ChildrenOfKind(graph.KindBox)
	require.Len(t, boxes, 2)
	assert.Equal(t, "a_b", boxes[0].Name)
	assert.Equal(t, "a_b1", boxes[1].Name)
	assert.Equal(t, 1, res.Collisions)
	assert.Equal(t, "a:b", res.Boxes[1].Material.Name)
}
