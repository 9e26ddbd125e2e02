package cfg

import "beanstalk/internal/hir"

// PostOrder returns reachable blocks in DFS postorder, used by lowering
// passes that need children emitted before (or in a stable relationship
// to) their parents.
func (g *Graph) PostOrder() []hir.BlockID {
	visited := make(map[hir.BlockID]bool, len(g.Reachable))
	var order []hir.BlockID

	var visit func(hir.BlockID)
	visit = func(id hir.BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, s := range g.Successors[id] {
			visit(s)
		}
		order = append(order, id)
	}
	visit(g.Entry)
	return order
}

// ReversePostOrder returns reachable blocks in reverse DFS postorder - a
// topologically sound order for acyclic regions, and the conventional
// traversal order for structured emission (spec.md §4.J.4).
func (g *Graph) ReversePostOrder() []hir.BlockID {
	post := g.PostOrder()
	out := make([]hir.BlockID, len(post))
	for i, b := range post {
		out[len(post)-1-i] = b
	}
	return out
}
