package render

import (
	"sort"

	"mtlxgraph/internal/graph"
)

// Config controls how focused subgraphs are extracted.
type Config struct {
	MaxHops      int
	AllowedKinds map[graph.NodeKind]bool
}

func DefaultConfig() Config {
	return Config{
		MaxHops:      2,
		AllowedKinds: nil,
	}
}

// Link is a node-level connection: at least one plug of To is fed by From.
type Link struct {
	From graph.NodeID
	To   graph.NodeID
}

// Subgraph is a set of nodes with the links between them.
type Subgraph struct {
	MaxHops int
	SeedIDs []graph.NodeID
	NodeIDs []graph.NodeID
	Depth   map[graph.NodeID]int
	Links   []Link
}

// Links collapses plug connections into node-level links, in node-ID order.
func Links(g *graph.Graph) []Link {
	if g == nil {
		return nil
	}
	var out []Link
	for _, n := range g.SortedNodes() {
		for _, dep := range g.GetDependencies(n.ID) {
			out = append(out, Link{From: dep.ID, To: n.ID})
		}
	}
	sortLinks(out)
	return out
}

// Whole returns every node and link of g.
func Whole(g *graph.Graph) *Subgraph {
	sg := &Subgraph{Depth: map[graph.NodeID]int{}}
	if g == nil {
		return sg
	}
	for _, n := range g.SortedNodes() {
		sg.NodeIDs = append(sg.NodeIDs, n.ID)
		sg.Depth[n.ID] = 0
	}
	sg.Links = Links(g)
	return sg
}

// Extract walks links in both directions from the seeds, up to cfg.MaxHops.
func Extract(g *graph.Graph, seeds []graph.NodeID, cfg Config) *Subgraph {
	if g == nil {
		return &Subgraph{Depth: map[graph.NodeID]int{}}
	}
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}

	visitedDepth := make(map[graph.NodeID]int, len(seeds))
	queue := make([]queueItem, 0, len(seeds))
	var seedIDs []graph.NodeID
	for _, id := range seeds {
		if _, ok := g.Nodes[id]; !ok {
			continue
		}
		if _, dup := visitedDepth[id]; dup {
			continue
		}
		visitedDepth[id] = 0
		seedIDs = append(seedIDs, id)
		queue = append(queue, queueItem{id: id, depth: 0})
	}
	sortIDs(seedIDs)

	adj := make(map[graph.NodeID][]linkHop)
	for _, l := range Links(g) {
		if !kindAllowed(g, l, cfg) {
			continue
		}
		adj[l.From] = append(adj[l.From], linkHop{to: l.To, link: l})
		adj[l.To] = append(adj[l.To], linkHop{to: l.From, link: l})
	}

	linkSeen := make(map[Link]bool)
	links := make([]Link, 0)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= cfg.MaxHops {
			continue
		}

		for _, next := range adj[cur.id] {
			if !linkSeen[next.link] {
				linkSeen[next.link] = true
				links = append(links, next.link)
			}

			nextDepth := cur.depth + 1
			prevDepth, seen := visitedDepth[next.to]
			if !seen || nextDepth < prevDepth {
				visitedDepth[next.to] = nextDepth
				queue = append(queue, queueItem{id: next.to, depth: nextDepth})
			}
		}
	}

	nodeIDs := make([]graph.NodeID, 0, len(visitedDepth))
	for id := range visitedDepth {
		nodeIDs = append(nodeIDs, id)
	}
	sortIDs(nodeIDs)
	sortLinks(links)

	return &Subgraph{
		MaxHops: cfg.MaxHops,
		SeedIDs: seedIDs,
		NodeIDs: nodeIDs,
		Depth:   visitedDepth,
		Links:   links,
	}
}

// Contains reports whether id is part of the subgraph.
func (s *Subgraph) Contains(id graph.NodeID) bool {
	_, ok := s.Depth[id]
	return ok
}

type queueItem struct {
	id    graph.NodeID
	depth int
}

type linkHop struct {
	to   graph.NodeID
	link Link
}

// kindAllowed keeps a link when both ends are of an allowed kind.
func kindAllowed(g *graph.Graph, l Link, cfg Config) bool {
	if len(cfg.AllowedKinds) == 0 {
		return true
	}
	return cfg.AllowedKinds[g.Nodes[l.From].Kind] && cfg.AllowedKinds[g.Nodes[l.To].Kind]
}

func sortIDs(ids []graph.NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortLinks(links []Link) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].From == links[j].From {
			return links[i].To < links[j].To
		}
		return links[i].From < links[j].From
	})
}
