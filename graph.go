package injector

import (
	"sync"
)

// DependencyGraph records which keys each key resolved while its
// factory ran. Edges are learned at runtime; nothing is declared up front.
type DependencyGraph struct {
	nodes map[TypeKey]*node
	order []TypeKey // Preserve first-seen order
	mu    sync.RWMutex
}

type node struct {
	key          TypeKey
	dependencies []TypeKey
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[TypeKey]*node),
		order: make([]TypeKey, 0),
	}
}

// AddNode adds a node if it does not exist yet.
func (g *DependencyGraph) AddNode(key TypeKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(key)
}

func (g *DependencyGraph) addNodeLocked(key TypeKey) *node {
	if n, ok := g.nodes[key]; ok {
		return n
	}

	n := &node{key: key}
	g.nodes[key] = n
	g.order = append(g.order, key)

	return n
}

// AddEdge records that from depends on to. Duplicate edges are ignored.
func (g *DependencyGraph) AddEdge(from, to TypeKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.addNodeLocked(from)
	g.addNodeLocked(to)

	for _, dep := range n.dependencies {
		if dep == to {
			return
		}
	}

	n.dependencies = append(n.dependencies, to)
}

// Dependencies returns the keys key was observed to depend on.
func (g *DependencyGraph) Dependencies(key TypeKey) []TypeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[key]
	if !ok || len(n.dependencies) == 0 {
		return nil
	}

	deps := make([]TypeKey, len(n.dependencies))
	copy(deps, n.dependencies)

	return deps
}

// HasNode checks if a node exists in the graph.
func (g *DependencyGraph) HasNode(key TypeKey) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[key]

	return ok
}

// TopologicalSort returns keys with dependencies before dependents.
// Nodes without dependencies keep their first-seen order.
func (g *DependencyGraph) TopologicalSort() ([]TypeKey, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[TypeKey]bool)
	visiting := make(map[TypeKey]bool)
	result := make([]TypeKey, 0, len(g.nodes))

	for _, key := range g.order {
		if err := g.visit(key, visited, visiting, nil, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// visit performs DFS traversal.
func (g *DependencyGraph) visit(key TypeKey, visited, visiting map[TypeKey]bool, path []TypeKey, result *[]TypeKey) error {
	if visited[key] {
		return nil
	}

	path = append(path, key)

	if visiting[key] {
		// Trim the path to the cycle itself
		for i, k := range path {
			if k == key {
				return &CyclicDependencyError{Chain: append([]TypeKey(nil), path[i:]...)}
			}
		}
	}

	n := g.nodes[key]
	if n == nil {
		return nil
	}

	visiting[key] = true

	for _, dep := range n.dependencies {
		if err := g.visit(dep, visited, visiting, path, result); err != nil {
			return err
		}
	}

	visiting[key] = false
	visited[key] = true
	*result = append(*result, key)

	return nil
}

// ResetNode drops the recorded dependencies of key, keeping the node.
// Used when a binding is replaced and its factory may differ.
func (g *DependencyGraph) ResetNode(key TypeKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(key).dependencies = nil
}
