package mtlx

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0"?>
<materialx version="1.36">
  <nodegraph name="NG_wood">
    <image name="wood:tex" type="color3">
      <parameter name="filename" type="filename" value="wood.tx"/>
    </image>
    <multiply name="tint" type="color3">
      <input name="input1" type="color3" nodename="wood:tex"/>
      <input name="input2" type="color3" value="0.8, 0.7, 0.6"/>
    </multiply>
    <output name="out" type="color3" nodename="tint"/>
  </nodegraph>
  <material name="M/wood">
    <shaderref name="SR_wood" node="standard_surface" context="surfaceshader">
      <bindinput name="base_color" type="color3" nodegraph="NG_wood" output="out"/>
      <bindinput name="specular" type="float" value="0.25"/>
      <bindinput name="unset" type="float"/>
    </shaderref>
  </material>
  <look name="default">
    <materialassign name="ma1" material="M/wood" geom="/world/table/top"/>
    <visibility name="v1" geom="/world/table" vistype="camera" visible="false"/>
    <visibility name="v2" geom="/world/lamp" vistype="shadow" visible="true"/>
  </look>
</materialx>`

func TestRead_Structure(t *testing.T) {
	doc, err := Read(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "1.36", doc.Version)
	require.Len(t, doc.Materials, 1)
	require.Len(t, doc.NodeGraphs, 1)
	require.Len(t, doc.Looks, 1)

	m := doc.Material("M/wood")
	require.NotNil(t, m)
	require.Len(t, m.ShaderRefs, 1)

	sr := m.ShaderRefs[0]
	assert.Equal(t, "standard_surface", sr.NodeString)
	assert.Equal(t, "surfaceshader", sr.Context)
	require.Len(t, sr.BindInputs, 3)

	specular := sr.BindInputs[1]
	require.NotNil(t, specular.Value)
	assert.Equal(t, []float64{0.25}, specular.Value.Numbers)
	assert.Nil(t, sr.BindInputs[2].Value, "a bind input without value stays unbound")

	look := doc.Looks[0]
	assert.Equal(t, "default", look.Name)
	require.Len(t, look.Visibilities, 2)
	assert.False(t, look.Visibilities[0].Visible)
	assert.True(t, look.Visibilities[1].Visible)
	assert.Equal(t, "camera", look.Visibilities[0].VisibilityType)
	assert.Same(t, m, doc.ReferencedMaterial(look.MaterialAssigns[0]))
}

func TestDocument_ConnectedNodeAndTraversal(t *testing.T) {
	doc, err := Read(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	sr := doc.Materials[0].ShaderRefs[0]
	up := doc.ConnectedNode(sr.BindInputs[0])
	require.NotNil(t, up)
	assert.Equal(t, "tint", up.Name)
	assert.Nil(t, doc.ConnectedNode(sr.BindInputs[1]))

	nodes := doc.TraverseGraph(sr)
	require.Len(t, nodes, 2)
	assert.Equal(t, "tint", nodes[0].Name)
	assert.Equal(t, "wood:tex", nodes[1].Name)
	assert.Equal(t, "image", nodes[1].Category)
}

func TestDocument_TraversalSurvivesCycles(t *testing.T) {
	doc, err := Read(strings.NewReader(`<materialx version="1.36">
  <nodegraph name="loop">
    <add name="a" type="float"><input name="in1" type="float" nodename="b"/></add>
    <add name="b" type="float"><input name="in1" type="float" nodename="a"/></add>
    <output name="out" type="float" nodename="a"/>
  </nodegraph>
  <material name="m">
    <shaderref name="s" node="standard_surface">
      <bindinput name="base" type="float" nodegraph="loop" output="out"/>
    </shaderref>
  </material>
</materialx>`))
	require.NoError(t, err)

	nodes := doc.TraverseGraph(doc.Materials[0].ShaderRefs[0])
	assert.Len(t, nodes, 2)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nonexistent.mtlx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileMissing)
}

func TestRead_RejectsForeignRoot(t *testing.T) {
	_, err := Read(strings.NewReader(`<usd/>`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ     ValueType
		raw     string
		want    []float64
		wantErr bool
	}{
		{TypeColor3, "1.0, 0.5, 0.2", []float64{1, 0.5, 0.2}, false},
		{TypeColor4, "1,0,0,1", []float64{1, 0, 0, 1}, false},
		{TypeInteger, "3", []float64{3}, false},
		{TypeVector3, "1,2", nil, true},
		{TypeFloat, "abc", nil, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.raw, func(t *testing.T) {
			v, err := ParseValue(tt.typ, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Numbers)
		})
	}

	s, err := ParseValue(TypeFilename, "tex/wood.tx")
	require.NoError(t, err)
	assert.Equal(t, "tex/wood.tx", s.Text)
	assert.False(t, s.IsNumeric())
}

func TestFixNameAndParentPath(t *testing.T) {
	assert.Equal(t, "M_wood_a_b", FixName("M/wood:a/b"))
	assert.Equal(t, "/a/b/", ParentPath("/a/b/c"))
	assert.Equal(t, "/", ParentPath("/a"))
	assert.Equal(t, "", ParentPath("a"))
}
