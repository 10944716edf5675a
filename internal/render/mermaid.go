// Package render draws generated node graphs as Mermaid flowcharts.
package render

import (
	"fmt"
	"strings"

	"mtlxgraph/internal/graph"
)

type MermaidGenerator struct {
	Direction string // TD or LR
	Fenced    bool   // wrap in a ```mermaid block
}

func NewMermaidGenerator() *MermaidGenerator {
	return &MermaidGenerator{Direction: "LR", Fenced: true}
}

// GenerateFlowChart emits the nodes of sg. Boxes become Mermaid subgraphs
// holding those of their children that are part of sg.
func (m *MermaidGenerator) GenerateFlowChart(g *graph.Graph, sg *Subgraph) string {
	var sb strings.Builder
	if m.Fenced {
		sb.WriteString("```mermaid\n")
	}
	dir := m.Direction
	if dir == "" {
		dir = "LR"
	}
	sb.WriteString("flowchart " + dir + "\n")

	emitted := make(map[graph.NodeID]bool)
	for _, id := range sg.NodeIDs {
		n := g.Nodes[id]
		if n == nil || emitted[id] {
			continue
		}
		if n.Parent != nil && sg.Contains(n.Parent.ID) && n.Parent.Kind == graph.KindBox {
			// drawn inside its box
			continue
		}
		m.writeNode(&sb, n, sg, emitted, "    ")
	}

	for _, l := range sg.Links {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID(l.From), nodeID(l.To)))
	}

	if m.Fenced {
		sb.WriteString("```\n")
	}
	return sb.String()
}

func (m *MermaidGenerator) writeNode(sb *strings.Builder, n *graph.Node, sg *Subgraph, emitted map[graph.NodeID]bool, indent string) {
	emitted[n.ID] = true
	if n.Kind != graph.KindBox {
		sb.WriteString(fmt.Sprintf("%s%s%s\n", indent, nodeID(n.ID), shapeFor(n)))
		return
	}

	sb.WriteString(fmt.Sprintf("%ssubgraph %s[\"%s\"]\n", indent, nodeID(n.ID), escapeLabel(n.Name)))
	for _, c := range n.Children() {
		if sg.Contains(c.ID) && !emitted[c.ID] {
			m.writeNode(sb, c, sg, emitted, indent+"    ")
		}
	}
	sb.WriteString(indent + "end\n")
}

func nodeID(id graph.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

// shapeFor picks a Mermaid node shape by kind so scene plumbing and shading
// nodes are told apart at a glance.
func shapeFor(n *graph.Node) string {
	label := escapeLabel(n.Name)
	if n.Type != "" {
		label += "<br/>" + escapeLabel(n.Type)
	}
	switch n.Kind {
	case graph.KindHost:
		return fmt.Sprintf("[[\"%s\"]]", label)
	case graph.KindBoxIn, graph.KindBoxOut:
		return fmt.Sprintf("((\"%s\"))", label)
	case graph.KindPathFilter:
		return fmt.Sprintf("[/\"%s\"/]", label)
	case graph.KindShaderAssignment, graph.KindAttributes:
		return fmt.Sprintf("{{\"%s\"}}", label)
	default:
		return fmt.Sprintf("[\"%s\"]", label)
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
