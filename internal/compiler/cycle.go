package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/joinery/internal/schema"
)

// CycleWarning reports a closed loop in the relation graph.
//
// Cycles are warnings, not errors: a schema may legitimately relate the same
// views along two routes. The join tree always takes the first related view
// already placed, so which route a query joins along then depends on the
// order attributes are selected in.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["Books", "Publishers", "Reviews", "Books"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles reports every relation that closes a loop.
//
// The algorithm:
//  1. Walk relations in registration order, merging endpoint sets (union-find)
//  2. A relation whose endpoints are already connected closes a cycle
//  3. The cycle path is the existing route between the endpoints (BFS over
//     the relations seen so far) plus the closing relation
//
// A schema built only through AddView is a tree and returns no warnings.
func AnalyzeCycles(s *schema.Schema) []CycleWarning {
	warnings := []CycleWarning{}

	parent := make(map[*schema.View]*schema.View)
	var find func(v *schema.View) *schema.View
	find = func(v *schema.View) *schema.View {
		p, ok := parent[v]
		if !ok || p == v {
			parent[v] = v
			return v
		}
		root := find(p)
		parent[v] = root
		return root
	}

	graph := make(relationGraph)
	for _, rel := range s.Relations() {
		a, b := rel.Views()
		ra, rb := find(a), find(b)
		if ra == rb {
			route := graph.route(a, b)
			path := make([]string, 0, len(route)+1)
			for _, v := range route {
				path = append(path, v.Name())
			}
			path = append(path, a.Name())
			warnings = append(warnings, CycleWarning{
				Path:    path,
				Message: fmt.Sprintf("Relation cycle detected: %s (closed by %s)", strings.Join(path, " → "), rel),
				Level:   "warning",
			})
		} else {
			parent[ra] = rb
		}
		graph[a] = append(graph[a], b)
		graph[b] = append(graph[b], a)
	}

	return warnings
}

// relationGraph is the undirected adjacency of views, in registration order.
type relationGraph map[*schema.View][]*schema.View

// route returns the shortest path from a to b, both ends included.
func (g relationGraph) route(a, b *schema.View) []*schema.View {
	prev := map[*schema.View]*schema.View{a: nil}
	queue := []*schema.View{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == b {
			break
		}
		for _, next := range g[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}

	var path []*schema.View
	for v := b; v != nil; v = prev[v] {
		path = append([]*schema.View{v}, path...)
	}
	return path
}
