package mtlx

// Context tag marking a shader reference as displacement.
const ContextDisplacement = "displacementshader"

// Document is an immutable, parsed MaterialX file. It is replaced wholesale on reload.
type Document struct {
	Path       string
	Version    string
	Materials  []*Material
	NodeGraphs []*NodeGraph
	Nodes      []*Node // nodes declared at document scope
	Looks      []*Look

	materials  map[string]*Material
	nodeGraphs map[string]*NodeGraph
	nodes      map[string]*Node
}

type Material struct {
	Name       string
	ShaderRefs []*ShaderRef
}

// ShaderRef binds a shader node type to a set of inputs.
type ShaderRef struct {
	Name       string
	NodeString string // shader type identifier
	Context    string
	BindInputs []*BindInput
}

// BindInput holds either a literal Value or a reference to an upstream output.
type BindInput struct {
	Name      string
	Type      ValueType
	Value     *Value
	NodeGraph string
	Output    string
	NodeName  string
}

type NodeGraph struct {
	Name    string
	Nodes   []*Node
	Outputs []*Output

	nodes   map[string]*Node
	outputs map[string]*Output
}

// Node is a graph node; its element tag is the Category.
type Node struct {
	Name     string
	Category string
	Type     ValueType
	Graph    string // owning nodegraph, empty at document scope
	Inputs   []*Input
}

// Key identifies the node across the whole document.
func (n *Node) Key() string {
	return n.Graph + "/" + n.Name
}

type Input struct {
	Name     string
	Type     ValueType
	Value    *Value
	NodeName string
	Output   string
}

type Output struct {
	Name     string
	Type     ValueType
	NodeName string
}

type Look struct {
	Name            string
	MaterialAssigns []*MaterialAssign
	Visibilities    []*Visibility
}

type MaterialAssign struct {
	Name     string
	Material string
	Geom     string
}

type Visibility struct {
	Name           string
	Geom           string
	VisibilityType string
	Visible        bool
}

// Material returns the material named name, or nil.
func (d *Document) Material(name string) *Material {
	return d.materials[name]
}

// ReferencedMaterial resolves the material of an assignment, or nil when it is not declared.
func (d *Document) ReferencedMaterial(a *MaterialAssign) *Material {
	if a == nil {
		return nil
	}
	return d.materials[a.Material]
}

func (d *Document) NodeGraph(name string) *NodeGraph {
	return d.nodeGraphs[name]
}

// ConnectedOutput returns the nodegraph output a bind input reads from.
func (d *Document) ConnectedOutput(b *BindInput) *Output {
	if b == nil || b.NodeGraph == "" {
		return nil
	}
	ng := d.nodeGraphs[b.NodeGraph]
	if ng == nil {
		return nil
	}
	if b.Output == "" && len(ng.Outputs) == 1 {
		return ng.Outputs[0]
	}
	return ng.outputs[b.Output]
}

// ConnectedNode returns the upstream node feeding a bind input, or nil for literals
// and dangling references.
func (d *Document) ConnectedNode(b *BindInput) *Node {
	if b == nil {
		return nil
	}
	if b.NodeName != "" {
		return d.nodes[b.NodeName]
	}
	out := d.ConnectedOutput(b)
	if out == nil || out.NodeName == "" {
		return nil
	}
	return d.nodeGraphs[b.NodeGraph].nodes[out.NodeName]
}

// UpstreamNode returns the node feeding input in of n. Lookup starts in n's nodegraph
// and falls back to document scope.
func (d *Document) UpstreamNode(n *Node, in *Input) *Node {
	if n == nil || in == nil || in.NodeName == "" {
		return nil
	}
	if ng := d.nodeGraphs[n.Graph]; ng != nil {
		if up := ng.nodes[in.NodeName]; up != nil {
			return up
		}
	}
	return d.nodes[in.NodeName]
}
