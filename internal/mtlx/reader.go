package mtlx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var (
	// ErrFileMissing reports a document path that cannot be opened.
	ErrFileMissing = errors.New("materialx file missing")
	// ErrInvalidDocument reports a file that is not a MaterialX document.
	ErrInvalidDocument = errors.New("invalid materialx document")
)

// element is a generic XML node; MaterialX node tags are open-ended so the
// tree is decoded untyped and interpreted afterwards.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
}

func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (e *element) hasAttr(name string) bool {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

// ReadFile loads and parses the document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileMissing, path, err)
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Read parses a document from r.
func Read(r io.Reader) (*Document, error) {
	var root element
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if root.XMLName.Local != "materialx" {
		return nil, fmt.Errorf("%w: root element is <%s>", ErrInvalidDocument, root.XMLName.Local)
	}

	doc := &Document{
		Version:    root.attr("version"),
		materials:  make(map[string]*Material),
		nodeGraphs: make(map[string]*NodeGraph),
		nodes:      make(map[string]*Node),
	}

	for i := range root.Children {
		child := &root.Children[i]
		switch child.XMLName.Local {
		case "material":
			m := readMaterial(child)
			doc.Materials = append(doc.Materials, m)
			doc.materials[m.Name] = m
		case "nodegraph":
			ng := readNodeGraph(child)
			doc.NodeGraphs = append(doc.NodeGraphs, ng)
			doc.nodeGraphs[ng.Name] = ng
		case "look":
			doc.Looks = append(doc.Looks, readLook(child))
		case "nodedef", "typedef", "geominfo", "collection", "propertyset", "variantset", "backdrop", "output", "xi:include", "include":
			// not used when building the scene graph
		default:
			if child.attr("name") == "" {
				continue
			}
			n := readNode(child, "")
			doc.Nodes = append(doc.Nodes, n)
			doc.nodes[n.Name] = n
		}
	}

	return doc, nil
}

func readMaterial(e *element) *Material {
	m := &Material{Name: e.attr("name")}
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Local != "shaderref" {
			continue
		}
		sr := &ShaderRef{
			Name:       c.attr("name"),
			NodeString: c.attr("node"),
			Context:    c.attr("context"),
		}
		for j := range c.Children {
			b := &c.Children[j]
			if b.XMLName.Local != "bindinput" && b.XMLName.Local != "bindparam" {
				continue
			}
			typ := ValueType(b.attr("type"))
			sr.BindInputs = append(sr.BindInputs, &BindInput{
				Name:      b.attr("name"),
				Type:      typ,
				Value:     readValue(b, typ),
				NodeGraph: b.attr("nodegraph"),
				Output:    b.attr("output"),
				NodeName:  b.attr("nodename"),
			})
		}
		m.ShaderRefs = append(m.ShaderRefs, sr)
	}
	return m
}

func readNodeGraph(e *element) *NodeGraph {
	ng := &NodeGraph{
		Name:    e.attr("name"),
		nodes:   make(map[string]*Node),
		outputs: make(map[string]*Output),
	}
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Local == "output" {
			out := &Output{
				Name:     c.attr("name"),
				Type:     ValueType(c.attr("type")),
				NodeName: c.attr("nodename"),
			}
			ng.Outputs = append(ng.Outputs, out)
			ng.outputs[out.Name] = out
			continue
		}
		if c.attr("name") == "" {
			continue
		}
		n := readNode(c, ng.Name)
		ng.Nodes = append(ng.Nodes, n)
		ng.nodes[n.Name] = n
	}
	return ng
}

func readNode(e *element, graph string) *Node {
	n := &Node{
		Name:     e.attr("name"),
		Category: e.XMLName.Local,
		Type:     ValueType(e.attr("type")),
		Graph:    graph,
	}
	for i := range e.Children {
		c := &e.Children[i]
		if c.XMLName.Local != "input" && c.XMLName.Local != "parameter" {
			continue
		}
		typ := ValueType(c.attr("type"))
		n.Inputs = append(n.Inputs, &Input{
			Name:     c.attr("name"),
			Type:     typ,
			Value:    readValue(c, typ),
			NodeName: c.attr("nodename"),
			Output:   c.attr("output"),
		})
	}
	return n
}

func readLook(e *element) *Look {
	l := &Look{Name: e.attr("name")}
	for i := range e.Children {
		c := &e.Children[i]
		switch c.XMLName.Local {
		case "materialassign":
			l.MaterialAssigns = append(l.MaterialAssigns, &MaterialAssign{
				Name:     c.attr("name"),
				Material: c.attr("material"),
				Geom:     c.attr("geom"),
			})
		case "visibility":
			visible, _ := strconv.ParseBool(c.attr("visible"))
			l.Visibilities = append(l.Visibilities, &Visibility{
				Name:           c.attr("name"),
				Geom:           c.attr("geom"),
				VisibilityType: c.attr("vistype"),
				Visible:        visible,
			})
		}
	}
	return l
}

// readValue returns nil when the element has no usable literal.
func readValue(e *element, typ ValueType) *Value {
	if !e.hasAttr("value") {
		return nil
	}
	v, err := ParseValue(typ, e.attr("value"))
	if err != nil {
		return nil
	}
	return v
}
