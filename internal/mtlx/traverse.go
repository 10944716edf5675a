package mtlx

// TraverseGraph walks upstream from every connected bind input of sr and returns each
// reachable node once, in depth-first pre-order. Cycles are cut by the visited set.
func (d *Document) TraverseGraph(sr *ShaderRef) []*Node {
	if sr == nil {
		return nil
	}

	visited := make(map[string]bool)
	var out []*Node

	var visit func(n *Node)
	visit = func(n *Node) {
		if n == nil || visited[n.Key()] {
			return
		}
		visited[n.Key()] = true
		out = append(out, n)
		for _, in := range n.Inputs {
			visit(d.UpstreamNode(n, in))
		}
	}

	for _, b := range sr.BindInputs {
		visit(d.ConnectedNode(b))
	}
	return out
}
