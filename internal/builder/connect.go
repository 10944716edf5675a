package builder

import (
	"time"

	"mtlxgraph/internal/bind"
	"mtlxgraph/internal/graph"
	"mtlxgraph/internal/mtlx"
)

// Connect wires every input that references an upstream node. It must run after
// Build, when all nodes of the document exist.
func (b *Builder) Connect(doc *mtlx.Document, res *Result) {
	start := time.Now()

	for _, mb := range res.Boxes {
		visited := make(map[string]bool)
		for i, sr := range mb.Material.ShaderRefs {
			sh := mb.Shaders[i]
			for _, bi := range sr.BindInputs {
				up := doc.ConnectedNode(bi)
				if up == nil {
					continue
				}
				b.connect(mb.Lookup(up), sh, bi.Name, &res.Connections)
			}

			for _, n := range doc.TraverseGraph(sr) {
				if visited[n.Key()] {
					continue
				}
				visited[n.Key()] = true
				node := mb.Lookup(n)
				for _, in := range n.Inputs {
					up := doc.UpstreamNode(n, in)
					if up == nil {
						continue
					}
					b.connect(mb.Lookup(up), node, in.Name, &res.Connections)
				}
			}
		}
	}

	b.log.Info("connections made",
		"node", b.g.Root.Name,
		"connected", res.Connections.Connected,
		"mismatched", res.Connections.Mismatched,
		"seconds", time.Since(start).Seconds(),
	)
}

func (b *Builder) connect(upstream, target *graph.Node, param string, stats *Stats) {
	if upstream == nil || target == nil {
		stats.Skipped++
		return
	}
	dst := target.Plug("parameters", param)
	if dst == nil {
		stats.Skipped++
		return
	}
	src := upstream.Plug("out")
	if err := bind.Connect(b.g, src, dst); err != nil {
		stats.Mismatched++
		b.log.Warn("failed to connect", "from", src.Path(), "to", dst.Path(), "error", err)
		return
	}
	stats.Connected++
}
