package builder

import "mtlxgraph/internal/graph"

// symbolTable maps MaterialX source identities to the nodes generated for them
// within one material box.
type symbolTable struct {
	bySource map[string]*graph.Node
}

func newSymbolTable() *symbolTable {
	return &symbolTable{bySource: make(map[string]*graph.Node)}
}

// add records n for key and reports whether the host had to rename it because the
// sanitized name was already taken by another node of the box.
func (t *symbolTable) add(key, sanitized string, n *graph.Node) bool {
	t.bySource[key] = n
	return n.Name != sanitized
}
