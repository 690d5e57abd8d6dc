package graph

import (
	"errors"
	"slices"
)

// reaches reports whether to is reachable from from over non-feedback edges.
func (s *Store) reaches(from, to NodeID) bool {
	adj := s.adjacency()
	seen := map[NodeID]bool{from: true}
	stack := []NodeID{from}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id == to {
			return true
		}

		for _, next := range adj[id] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}

	return false
}

// adjacency returns the successors of every node over non-feedback edges,
// in connection id order.
func (s *Store) adjacency() map[NodeID][]NodeID {
	adj := make(map[NodeID][]NodeID, len(s.nodes))
	for _, c := range s.Connections() {
		if c.Feedback {
			continue
		}

		adj[c.Src] = append(adj[c.Src], c.Dst)
	}

	return adj
}

// Order returns the render order: every node appears after all nodes that
// feed it through non-feedback connections. Independent nodes keep their
// insertion order.
func (s *Store) Order() ([]NodeID, error) {
	adj := s.adjacency()

	indegree := make(map[NodeID]int, len(s.ids))
	for _, succ := range adj {
		for _, id := range succ {
			indegree[id]++
		}
	}

	rank := make(map[NodeID]int, len(s.ids))
	for i, id := range s.ids {
		rank[id] = i
	}

	ready := make([]NodeID, 0, len(s.ids))
	for _, id := range s.ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]NodeID, 0, len(s.ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		order = append(order, id)

		var released []NodeID

		for _, next := range adj[id] {
			indegree[next]--
			if indegree[next] == 0 {
				released = append(released, next)
			}
		}

		slices.SortFunc(released, func(a, b NodeID) int { return rank[a] - rank[b] })
		ready = append(ready, released...)
	}

	if len(order) != len(s.ids) {
		return nil, errors.New("graph: order: contains cycle")
	}

	return order, nil
}
