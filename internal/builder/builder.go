package builder

import (
	"time"

	"mtlxgraph/internal/bind"
	"mtlxgraph/internal/graph"
	"mtlxgraph/internal/logger"
	"mtlxgraph/internal/mtlx"
	"mtlxgraph/internal/shader"
)

// MaterialBox is the generated subgraph of one material.
type MaterialBox struct {
	Material    *mtlx.Material
	Box         *graph.Node
	BoxIn       *graph.Node
	BoxOut      *graph.Node
	PathFilter  *graph.Node
	Assignments []*graph.Node // one per shader reference, chained in document order
	Shaders     []*graph.Node // one per shader reference, parallel to Material.ShaderRefs

	symbols *symbolTable
}

// Lookup returns the node generated for a MaterialX graph node, or nil.
func (b *MaterialBox) Lookup(n *mtlx.Node) *graph.Node {
	if n == nil {
		return nil
	}
	return b.symbols.bySource[n.Key()]
}

// Stats counts what a pass did. Skipped covers unbound inputs and parameters the
// shader does not declare; Mismatched covers bindings refused by every coercion rule.
type Stats struct {
	Bound      int
	Connected  int
	Skipped    int
	Mismatched int
}

type Result struct {
	Boxes        []*MaterialBox
	ShaderCount  int // shader nodes created, shader references included
	GraphNodes   int // shader nodes created from upstream graph nodes
	Displacement int
	Collisions   int
	Values       Stats
	Connections  Stats
}

// Builder turns a document into generated nodes below the graph root.
type Builder struct {
	g   *graph.Graph
	lib *shader.Library
	log *logger.Logger
}

func New(g *graph.Graph, lib *shader.Library, log *logger.Logger) *Builder {
	if lib == nil {
		lib = shader.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{g: g, lib: lib, log: log}
}

// Teardown removes every generated box, attribute override and path filter from the
// root and restores the root's pass-through. It returns the number of nodes removed.
func Teardown(g *graph.Graph) int {
	removed := 0
	for _, kind := range []graph.NodeKind{graph.KindBox, graph.KindAttributes, graph.KindPathFilter} {
		for _, n := range g.Root.ChildrenOfKind(kind) {
			g.RemoveNode(n)
			removed++
		}
	}
	_ = g.Connect(g.Root.Plug("in"), g.Root.Plug("out"))
	return removed
}

// Build creates one box per material in document order, its shader nodes and literal
// values. Connections between nodes are made by Connect once every node exists.
func (b *Builder) Build(doc *mtlx.Document) *Result {
	start := time.Now()
	res := &Result{}

	for _, m := range doc.Materials {
		mb := b.buildMaterial(doc, m, res)
		b.chain(res.Boxes, mb)
		res.Boxes = append(res.Boxes, mb)
	}

	b.log.Info("materials built",
		"node", b.g.Root.Name,
		"materials", len(res.Boxes),
		"shaders", res.ShaderCount,
		"seconds", time.Since(start).Seconds(),
	)
	return res
}

func (b *Builder) buildMaterial(doc *mtlx.Document, m *mtlx.Material, res *Result) *MaterialBox {
	g := b.g
	sanitized := mtlx.FixName(m.Name)
	box := g.NewBox(g.Root, sanitized)
	if box.Name != sanitized {
		res.Collisions++
		b.log.Warn("sanitized material name already used, renamed", "material", m.Name, "name", box.Name)
	}
	mb := &MaterialBox{
		Material:   m,
		Box:        box,
		BoxIn:      g.NewBoxIn(box),
		BoxOut:     g.NewBoxOut(box),
		PathFilter: g.NewPathFilter(box),
		symbols:    newSymbolTable(),
	}

	scene := mb.BoxIn.Plug("out")
	for _, sr := range m.ShaderRefs {
		sh := b.newShader(mb, res, "shaderref:"+sr.Name, sr.Name, sr.NodeString)
		mb.Shaders = append(mb.Shaders, sh)

		assign := g.NewShaderAssignment(box)
		mb.Assignments = append(mb.Assignments, assign)
		b.mustConnect(scene, assign.Plug("in"))
		b.mustConnect(mb.PathFilter.Plug("out"), assign.Plug("filter"))
		b.mustConnect(sh.Plug("out"), assign.Plug("shader"))

		if sr.Context == mtlx.ContextDisplacement {
			dsp := g.NewDisplacement(box)
			b.mustConnect(sh.Plug("out"), dsp.Plug("map"))
			b.mustConnect(dsp.Plug("out"), assign.Plug("shader"))
			res.Displacement++
		}
		scene = assign.Plug("out")

		for _, bi := range sr.BindInputs {
			b.assign(sh, bi.Name, bi.Value, &res.Values)
		}

		for _, n := range doc.TraverseGraph(sr) {
			if mb.symbols.bySource[n.Key()] != nil {
				continue
			}
			node := b.newShader(mb, res, n.Key(), n.Name, n.Category)
			res.GraphNodes++
			for _, in := range n.Inputs {
				if node.Plug("parameters", in.Name) == nil {
					continue
				}
				b.assign(node, in.Name, in.Value, &res.Values)
			}
		}
	}
	b.mustConnect(scene, mb.BoxOut.Plug("in"))

	return mb
}

// chain splices box onto the previous box, or onto the root input for the first one,
// and points the root output at it.
func (b *Builder) chain(prev []*MaterialBox, mb *MaterialBox) {
	upstream := b.g.Root.Plug("in")
	if len(prev) > 0 {
		upstream = prev[len(prev)-1].Box.Plug("out")
	}
	b.mustConnect(upstream, mb.Box.Plug("in"))
	b.mustConnect(mb.Box.Plug("out"), b.g.Root.Plug("out"))
}

func (b *Builder) newShader(mb *MaterialBox, res *Result, key, name, shaderType string) *graph.Node {
	sanitized := mtlx.FixName(name)
	n, err := b.lib.NewShader(b.g, mb.Box, sanitized, shaderType)
	if err != nil {
		b.log.Warn("failed to load shader", "node", n.Path(), "type", shaderType, "error", err)
	}
	if mb.symbols.add(key, sanitized, n) {
		res.Collisions++
		b.log.Warn("sanitized name already used in material, renamed",
			"material", mb.Material.Name, "source", name, "name", n.Name)
	}
	res.ShaderCount++
	return n
}

// assign binds a literal to a declared parameter. Nil values and undeclared
// parameters are skipped without a warning.
func (b *Builder) assign(n *graph.Node, param string, v *mtlx.Value, stats *Stats) {
	plug := n.Plug("parameters", param)
	if v == nil || plug == nil {
		stats.Skipped++
		return
	}
	if err := bind.Assign(b.g, plug, v); err != nil {
		stats.Mismatched++
		b.log.Warn("failed to set value", "plug", plug.Path(), "value", v.String(), "error", err)
		return
	}
	stats.Bound++
}

// mustConnect wires fixed structural plugs whose shapes always match.
func (b *Builder) mustConnect(src, dst *graph.Plug) {
	if err := b.g.Connect(src, dst); err != nil {
		b.log.Error("structural connection refused", "error", err)
	}
}

