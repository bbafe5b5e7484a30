package resolver

import (
	"container/heap"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
)

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Order returns the resolution order of g's nodes.
//
// Among the lines whose inputs are all resolved, the one earliest in
// canonical order goes first, so the order depends only on the graph.
// A cycle fails with a CircularDependencyError naming one cycle's lines.
func Order(g *forms.Graph) ([]int, error) {
	n := g.Len()
	indeg := make([]int, n)
	for i := 0; i < n; i++ {
		indeg[i] = len(g.InputIndices(i))
	}

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, n)
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		out = append(out, u)
		for _, v := range g.DependentIndices(u) {
			indeg[v]--
			if indeg[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}

	if len(out) == n {
		return out, nil
	}
	return nil, &common.CircularDependencyError{Lines: findCycle(g)}
}

// findCycle runs a DFS in canonical order and returns the first cycle it
// meets, closed on its starting line.
func findCycle(g *forms.Graph) []string {
	const (
		white = iota
		gray
		black
	)

	n := g.Len()
	color := make([]int, n)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.DependentIndices(u) {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := 0; i < n; i++ {
		if color[i] == white && dfs(i) {
			break
		}
	}

	lines := make([]string, len(cycle))
	for i := range cycle {
		lines[i] = g.Node(cycle[len(cycle)-1-i]).Key.String()
	}
	return lines
}
