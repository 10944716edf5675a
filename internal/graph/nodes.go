package graph

// Visibility attributes carried by every attribute override node, in declaration order.
var VisibilityAttributes = []string{
	"cameraVisibility",
	"shadowVisibility",
	"diffuseTransmissionVisibility",
	"specularTransmissionVisibility",
	"volumeVisibility",
	"diffuseReflectionVisibility",
	"specularReflectionVisibility",
	"subsurfaceVisibility",
}

// NewBox creates an empty subgraph container. Its scene plugs appear when
// boundary adapters are promoted with NewBoxIn and NewBoxOut.
func (g *Graph) NewBox(parent *Node, name string) *Node {
	return g.AddNode(parent, KindBox, name)
}

// NewBoxIn creates a boundary-in adapter inside box and promotes it: the box gains
// an "in" scene plug that drives the adapter's "out".
func (g *Graph) NewBoxIn(box *Node) *Node {
	n := g.AddNode(box, KindBoxIn, "BoxIn")
	out := g.AddPlug(n, nil, "out", ShapeScene, Out)
	promoted := box.Plug("in")
	if promoted == nil {
		promoted = g.AddPlug(box, nil, "in", ShapeScene, In)
	}
	_ = g.Connect(promoted, out)
	return n
}

// NewBoxOut creates a boundary-out adapter inside box and promotes it: the box gains
// an "out" scene plug driven by the adapter's "in".
func (g *Graph) NewBoxOut(box *Node) *Node {
	n := g.AddNode(box, KindBoxOut, "BoxOut")
	in := g.AddPlug(n, nil, "in", ShapeScene, In)
	promoted := box.Plug("out")
	if promoted == nil {
		promoted = g.AddPlug(box, nil, "out", ShapeScene, Out)
	}
	_ = g.Connect(in, promoted)
	return n
}

func (g *Graph) NewPathFilter(parent *Node) *Node {
	n := g.AddNode(parent, KindPathFilter, "PathFilter")
	g.AddPlug(n, nil, "paths", ShapeStringVector, In)
	g.AddPlug(n, nil, "out", ShapeFilter, Out)
	return n
}

func (g *Graph) NewShaderAssignment(parent *Node) *Node {
	n := g.AddNode(parent, KindShaderAssignment, "ShaderAssignment")
	g.AddPlug(n, nil, "in", ShapeScene, In)
	g.AddPlug(n, nil, "filter", ShapeFilter, In)
	g.AddPlug(n, nil, "shader", ShapeShader, In)
	g.AddPlug(n, nil, "out", ShapeScene, Out)
	return n
}

// NewShader creates a shader node with an empty "parameters" compound and an output
// of the given shape. Parameters are declared by the shader library.
func (g *Graph) NewShader(parent *Node, name, shaderType string, output Shape) *Node {
	n := g.AddNode(parent, KindShader, name)
	n.Type = shaderType
	g.AddPlug(n, nil, "parameters", ShapeCompound, In)
	g.AddPlug(n, nil, "out", output, Out)
	return n
}

func (g *Graph) NewDisplacement(parent *Node) *Node {
	n := g.AddNode(parent, KindDisplacement, "ArnoldDisplacement")
	g.AddPlug(n, nil, "map", ShapeShader, In)
	g.AddPlug(n, nil, "height", ShapeFloat, In)
	g.AddPlug(n, nil, "padding", ShapeFloat, In)
	g.AddPlug(n, nil, "zeroValue", ShapeFloat, In)
	g.AddPlug(n, nil, "autoBump", ShapeBool, In)
	g.AddPlug(n, nil, "out", ShapeShader, Out)
	_ = g.SetValue(n.Plug("height"), 1.0)
	return n
}

// NewAttributes creates an attribute override node with an enabled/value pair per visibility attribute.
func (g *Graph) NewAttributes(parent *Node) *Node {
	n := g.AddNode(parent, KindAttributes, "ArnoldAttributes")
	g.AddPlug(n, nil, "in", ShapeScene, In)
	g.AddPlug(n, nil, "filter", ShapeFilter, In)
	attrs := g.AddPlug(n, nil, "attributes", ShapeCompound, In)
	for _, name := range VisibilityAttributes {
		member := g.AddPlug(n, attrs, name, ShapeCompound, In)
		g.AddPlug(n, member, "enabled", ShapeBool, In)
		v := g.AddPlug(n, member, "value", ShapeBool, In)
		v.value = true
	}
	g.AddPlug(n, nil, "out", ShapeScene, Out)
	return n
}
