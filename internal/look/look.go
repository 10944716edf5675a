// Package look applies one MaterialX look to a built graph: material assignments
// become path filter entries and visibility statements become attribute overrides.
package look

import (
	"fmt"
	"time"

	"mtlxgraph/internal/builder"
	"mtlxgraph/internal/graph"
	"mtlxgraph/internal/logger"
	"mtlxgraph/internal/mtlx"
)

// BatchSize is the number of visibility statements carried by one attribute override node.
const BatchSize = 8

// visibilityAttributes maps MaterialX visibility types to override attribute names.
var visibilityAttributes = map[string]string{
	"camera":            "cameraVisibility",
	"shadow":            "shadowVisibility",
	"diffuse_transmit":  "diffuseTransmissionVisibility",
	"specular_transmit": "specularTransmissionVisibility",
	"volume":            "volumeVisibility",
	"diffuse_reflect":   "diffuseReflectionVisibility",
	"specular_reflect":  "specularReflectionVisibility",
	"subsurface":        "subsurfaceVisibility",
}

// AttributeFor returns the override attribute driven by a visibility type.
func AttributeFor(visType string) (string, bool) {
	name, ok := visibilityAttributes[visType]
	return name, ok
}

// Presets maps "preset:<look name>" to the look index, for every look of doc.
func Presets(doc *mtlx.Document) map[string]int {
	out := make(map[string]int)
	if doc == nil {
		return out
	}
	for i, l := range doc.Looks {
		out["preset:"+l.Name] = i
	}
	return out
}

type Compiler struct {
	g   *graph.Graph
	log *logger.Logger
}

func NewCompiler(g *graph.Graph, log *logger.Logger) *Compiler {
	if log == nil {
		log = logger.Nop()
	}
	return &Compiler{g: g, log: log}
}

func lookAt(doc *mtlx.Document, idx int) *mtlx.Look {
	if doc == nil || idx < 0 || idx >= len(doc.Looks) {
		return nil
	}
	return doc.Looks[idx]
}

// ApplyAssignments resets every box's path filter and fills it with the parent paths
// of the look's material assignments. An assignment lands only on the box built from
// the material it references. Assignments to unknown materials are dropped.
func (c *Compiler) ApplyAssignments(doc *mtlx.Document, boxes []*builder.MaterialBox, idx int) int {
	start := time.Now()
	l := lookAt(doc, idx)
	if l == nil {
		return 0
	}

	paths := make(map[*builder.MaterialBox][]string, len(boxes))
	for _, mb := range boxes {
		paths[mb] = []string{}
	}

	count := 0
	for _, ma := range l.MaterialAssigns {
		ref := doc.ReferencedMaterial(ma)
		if ref == nil {
			continue
		}
		for _, mb := range boxes {
			if mb.Material != ref {
				continue
			}
			paths[mb] = append(paths[mb], mtlx.ParentPath(ma.Geom))
			count++
		}
	}

	for _, mb := range boxes {
		if err := c.g.SetValue(mb.PathFilter.Plug("paths"), paths[mb]); err != nil {
			c.log.Error("failed to set assignment paths", "box", mb.Box.Name, "error", err)
		}
	}

	c.log.Info("assignments applied",
		"node", c.g.Root.Name,
		"look", l.Name,
		"assignments", count,
		"seconds", time.Since(start).Seconds(),
	)
	return count
}

// ApplyAttributes batches the look's visibility statements into attribute override
// nodes of BatchSize entries each, chained after the last box. Each batch is filtered
// to the geometry of its first statement only.
func (c *Compiler) ApplyAttributes(doc *mtlx.Document, boxes []*builder.MaterialBox, idx int) int {
	start := time.Now()
	l := lookAt(doc, idx)
	if l == nil {
		return 0
	}

	g := c.g
	var current *graph.Node
	count := 0
	for i, vis := range l.Visibilities {
		if i%BatchSize == 0 {
			upstream := c.sceneTail(boxes)
			current = g.NewAttributes(g.Root)
			filter := g.NewPathFilter(g.Root)
			c.connect(filter.Plug("out"), current.Plug("filter"))
			c.connect(upstream, current.Plug("in"))
			if err := g.SetValue(filter.Plug("paths"), []string{vis.Geom}); err != nil {
				c.log.Error("failed to set visibility paths", "filter", filter.Name, "error", err)
			}
			count++
		}

		attr, ok := AttributeFor(vis.VisibilityType)
		if !ok {
			c.log.Debug("ignoring visibility type", "type", vis.VisibilityType, "geom", vis.Geom)
			continue
		}
		_ = g.SetValue(current.Plug("attributes", attr, "enabled"), true)
		_ = g.SetValue(current.Plug("attributes", attr, "value"), vis.Visible)
	}

	if current != nil {
		c.connect(current.Plug("out"), g.Root.Plug("out"))
	}

	c.log.Info("attributes applied",
		"node", g.Root.Name,
		"look", l.Name,
		"attributes", count,
		"seconds", time.Since(start).Seconds(),
	)
	return count
}

// ClearAttributes removes the attribute overrides and their filters created by a
// previous look and points the root output back at the last box, or the root input.
func (c *Compiler) ClearAttributes(boxes []*builder.MaterialBox) int {
	removed := 0
	for _, kind := range []graph.NodeKind{graph.KindAttributes, graph.KindPathFilter} {
		for _, n := range c.g.Root.ChildrenOfKind(kind) {
			c.g.RemoveNode(n)
			removed++
		}
	}
	c.connect(c.sceneTail(boxes), c.g.Root.Plug("out"))
	return removed
}

// sceneTail is where the next override attaches: the last override node, else the
// last box, else the root input.
func (c *Compiler) sceneTail(boxes []*builder.MaterialBox) *graph.Plug {
	if attrs := c.g.Root.ChildrenOfKind(graph.KindAttributes); len(attrs) > 0 {
		return attrs[len(attrs)-1].Plug("out")
	}
	if len(boxes) > 0 {
		return boxes[len(boxes)-1].Box.Plug("out")
	}
	return c.g.Root.Plug("in")
}

func (c *Compiler) connect(src, dst *graph.Plug) {
	if err := c.g.Connect(src, dst); err != nil {
		c.log.Error("structural connection refused", "error", fmt.Errorf("look: %w", err))
	}
}
