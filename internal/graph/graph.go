package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Plug is a typed connection point on a node. Numeric compound plugs
// (color, vector) own one float child per component.
type Plug struct {
	Name      string
	Shape     Shape
	Direction Direction
	Node      *Node
	Parent    *Plug
	Children  []*Plug

	value   interface{}
	input   *Plug
	outputs []*Plug
}

// Child returns the direct child plug called name, or nil.
func (p *Plug) Child(name string) *Plug {
	for _, c := range p.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Input returns the plug this one is connected from, or nil.
func (p *Plug) Input() *Plug { return p.input }

// Outputs returns the plugs fed by this one.
func (p *Plug) Outputs() []*Plug { return p.outputs }

// Value returns the plug's own value, following connections to their source.
// Numeric compounds return []float64 built from their children.
func (p *Plug) Value() interface{} {
	if p.input != nil {
		return p.input.Value()
	}
	if n := p.Shape.Components(); n > 0 && len(p.Children) == n {
		out := make([]float64, n)
		for i, c := range p.Children {
			f, _ := c.Value().(float64)
			out[i] = f
		}
		return out
	}
	return p.value
}

// Path is the plug's location relative to the graph root, e.g. "Box/Shader.parameters.base_color".
func (p *Plug) Path() string {
	names := []string{}
	for cur := p; cur != nil; cur = cur.Parent {
		names = append([]string{cur.Name}, names...)
	}
	np := p.Node.Path()
	if np == "" {
		np = p.Node.Name
	}
	return np + "." + strings.Join(names, ".")
}

func (p *Plug) String() string { return p.Path() }

// Node is a vertex of the host graph. Nodes form a tree through Parent/children;
// connections between plugs are the edges.
type Node struct {
	ID     NodeID
	Name   string
	Kind   NodeKind
	Type   string // shader type for KindShader
	Parent *Node

	children []*Node
	plugs    []*Plug
}

// Children returns the child nodes in creation order.
func (n *Node) Children() []*Node { return n.children }

// Child returns the direct child node called name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns direct children of the given kind in creation order.
func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Plugs returns the top-level plugs.
func (n *Node) Plugs() []*Plug { return n.plugs }

// Plug resolves a plug by path segments, e.g. Plug("parameters", "base_color").
func (n *Node) Plug(path ...string) *Plug {
	if len(path) == 0 {
		return nil
	}
	var cur *Plug
	for _, p := range n.plugs {
		if p.Name == path[0] {
			cur = p
			break
		}
	}
	for _, name := range path[1:] {
		if cur == nil {
			return nil
		}
		cur = cur.Child(name)
	}
	return cur
}

// Path is the node's location below the root, e.g. "M_wood/SR_wood". The root's path is empty.
func (n *Node) Path() string {
	var names []string
	for cur := n; cur != nil && cur.Parent != nil; cur = cur.Parent {
		names = append([]string{cur.Name}, names...)
	}
	return strings.Join(names, "/")
}

// Graph manages nodes and their connections.
type Graph struct {
	Nodes map[NodeID]*Node
	Root  *Node

	nextID NodeID
}

// NewGraph creates a graph whose root is a host node with a pass-through scene in/out pair.
func NewGraph(rootName string) *Graph {
	g := &Graph{Nodes: make(map[NodeID]*Node)}
	g.Root = g.newNode(nil, KindHost, rootName)
	in := g.AddPlug(g.Root, nil, "in", ShapeScene, In)
	out := g.AddPlug(g.Root, nil, "out", ShapeScene, Out)
	_ = g.Connect(in, out)
	return g
}

func (g *Graph) newNode(parent *Node, kind NodeKind, name string) *Node {
	g.nextID++
	n := &Node{ID: g.nextID, Name: name, Kind: kind, Parent: parent}
	g.Nodes[n.ID] = n
	if parent != nil {
		n.Name = uniqueChildName(parent, name)
		parent.children = append(parent.children, n)
	}
	return n
}

// uniqueChildName appends the smallest numeric suffix that frees the name, as the host does.
func uniqueChildName(parent *Node, name string) string {
	if parent.Child(name) == nil {
		return name
	}
	base := strings.TrimRight(name, "0123456789")
	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if parent.Child(candidate) == nil {
			return candidate
		}
	}
}

// AddNode creates a child of parent (the root when nil). Name clashes are resolved with a numeric suffix.
func (g *Graph) AddNode(parent *Node, kind NodeKind, name string) *Node {
	if parent == nil {
		parent = g.Root
	}
	return g.newNode(parent, kind, name)
}

// AddPlug adds a plug to node, below parent when it is not nil. Numeric compound
// shapes get their component children.
func (g *Graph) AddPlug(node *Node, parent *Plug, name string, shape Shape, dir Direction) *Plug {
	p := &Plug{Name: name, Shape: shape, Direction: dir, Node: node, Parent: parent}
	for _, c := range componentNames[shape] {
		p.Children = append(p.Children, &Plug{Name: c, Shape: ShapeFloat, Direction: dir, Node: node, Parent: p, value: 0.0})
	}
	switch shape {
	case ShapeFloat:
		p.value = 0.0
	case ShapeInt:
		p.value = 0
	case ShapeBool:
		p.value = false
	case ShapeString:
		p.value = ""
	case ShapeStringVector:
		p.value = []string{}
	}
	if parent != nil {
		parent.Children = append(parent.Children, p)
	} else {
		node.plugs = append(node.plugs, p)
	}
	return p
}

// RemoveNode deletes n and its descendants, breaking every connection that touches them.
func (g *Graph) RemoveNode(n *Node) {
	if n == nil || n == g.Root {
		return
	}
	for _, c := range append([]*Node(nil), n.children...) {
		g.RemoveNode(c)
	}
	walkPlugs(n.plugs, func(p *Plug) {
		g.Disconnect(p)
		for _, o := range append([]*Plug(nil), p.outputs...) {
			g.Disconnect(o)
		}
	})
	if parent := n.Parent; parent != nil {
		for i, c := range parent.children {
			if c == n {
				parent.children = append(parent.children[:i], parent.children[i+1:]...)
				break
			}
		}
	}
	delete(g.Nodes, n.ID)
}

// Connect makes src drive dst, replacing any previous input of dst.
func (g *Graph) Connect(src, dst *Plug) error {
	if src == nil || dst == nil {
		return fmt.Errorf("connect: %w: nil plug", ErrNotFound)
	}
	if !accepts(dst, src) {
		return fmt.Errorf("%w: cannot connect %s (%s) to %s (%s)", ErrIncompatible, src.Path(), src.Shape, dst.Path(), dst.Shape)
	}
	g.Disconnect(dst)
	dst.input = src
	src.outputs = append(src.outputs, dst)
	return nil
}

// Disconnect removes the input of p, if any.
func (g *Graph) Disconnect(p *Plug) {
	src := p.input
	if src == nil {
		return
	}
	for i, o := range src.outputs {
		if o == p {
			src.outputs = append(src.outputs[:i], src.outputs[i+1:]...)
			break
		}
	}
	p.input = nil
}

func accepts(dst, src *Plug) bool {
	switch {
	case dst.Shape == ShapeShader:
		return src.Direction == Out && (src.Node.Kind == KindShader || src.Node.Kind == KindDisplacement)
	case dst.Shape == src.Shape:
		return dst.Shape != ShapeCompound
	case isScalar(dst.Shape) && isScalar(src.Shape):
		return true
	}
	return false
}

func isScalar(s Shape) bool {
	return s == ShapeFloat || s == ShapeInt
}

// SetValue stores v on p. Numeric compounds take a []float64 with one entry per component.
func (g *Graph) SetValue(p *Plug, v interface{}) error {
	if p == nil {
		return fmt.Errorf("set value: %w: nil plug", ErrNotFound)
	}
	bad := fmt.Errorf("%w: %s (%s) cannot hold %T", ErrIncompatible, p.Path(), p.Shape, v)

	if n := p.Shape.Components(); n > 0 {
		vals, ok := v.([]float64)
		if !ok || len(vals) != n {
			return bad
		}
		for i, c := range p.Children {
			c.value = vals[i]
		}
		return nil
	}

	switch p.Shape {
	case ShapeFloat:
		switch x := v.(type) {
		case float64:
			p.value = x
		case int:
			p.value = float64(x)
		default:
			return bad
		}
	case ShapeInt:
		x, ok := v.(int)
		if !ok {
			return bad
		}
		p.value = x
	case ShapeBool:
		x, ok := v.(bool)
		if !ok {
			return bad
		}
		p.value = x
	case ShapeString:
		x, ok := v.(string)
		if !ok {
			return bad
		}
		p.value = x
	case ShapeStringVector:
		x, ok := v.([]string)
		if !ok {
			return bad
		}
		p.value = append([]string(nil), x...)
	default:
		return bad
	}
	return nil
}

// Source follows inputs from p to the plug that ultimately drives it.
func (g *Graph) Source(p *Plug) *Plug {
	for p != nil && p.input != nil {
		p = p.input
	}
	return p
}

// Edges lists every connection in node-ID order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, n := range g.sortedNodes() {
		walkPlugs(n.plugs, func(p *Plug) {
			if p.input == nil {
				return
			}
			kind := "plug"
			if p.Parent != nil && p.Parent.Shape.Components() > 0 {
				kind = "component"
			}
			edges = append(edges, Edge{From: p.input.Path(), To: p.Path(), Kind: kind})
		})
	}
	return edges
}

// GetDependencies returns the nodes feeding any plug of the node with the given id.
func (g *Graph) GetDependencies(id NodeID) []*Node {
	n, ok := g.Nodes[id]
	if !ok {
		return nil
	}
	seen := map[NodeID]bool{}
	var deps []*Node
	walkPlugs(n.plugs, func(p *Plug) {
		if p.input == nil {
			return
		}
		src := p.input.Node
		if src != n && !seen[src.ID] {
			seen[src.ID] = true
			deps = append(deps, src)
		}
	})
	return deps
}

// GetDependents returns the nodes fed by any plug of the node with the given id.
func (g *Graph) GetDependents(id NodeID) []*Node {
	n, ok := g.Nodes[id]
	if !ok {
		return nil
	}
	seen := map[NodeID]bool{}
	var deps []*Node
	walkPlugs(n.plugs, func(p *Plug) {
		for _, o := range p.outputs {
			if o.Node != n && !seen[o.Node.ID] {
				seen[o.Node.ID] = true
				deps = append(deps, o.Node)
			}
		}
	})
	return deps
}

// FindByPath resolves a node path as returned by Node.Path.
func (g *Graph) FindByPath(path string) (*Node, error) {
	cur := g.Root
	if path == "" {
		return cur, nil
	}
	for _, name := range strings.Split(path, "/") {
		cur = cur.Child(name)
		if cur == nil {
			return nil, fmt.Errorf("node %q: %w", path, ErrNotFound)
		}
	}
	return cur, nil
}

func (g *Graph) sortedNodes() []*Node {
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// SortedNodes returns all nodes, root included, in creation order.
func (g *Graph) SortedNodes() []*Node {
	return g.sortedNodes()
}

func walkPlugs(plugs []*Plug, fn func(*Plug)) {
	for _, p := range plugs {
		fn(p)
		walkPlugs(p.Children, fn)
	}
}
