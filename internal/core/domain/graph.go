// Package domain contains the core domain models of the incremental build:
// source classification, the dependency graph and build reports.
package domain

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

type set map[InternedString]struct{}

type node struct {
	kind Kind
	// includes are the files this node read during its last compile.
	includes set
	// dependents are the nodes whose last compile read this file.
	dependents set
	// removed marks a tombstone: the file is gone but its dependents have
	// not yet been handed to a closure.
	removed bool
}

// Graph is the bidirectional include graph of the site. The forward index
// (source -> includes) is written only by RecordEdges after a compile; the
// reverse index (include -> dependents) is maintained as its exact transpose
// under the same lock.
type Graph struct {
	mu       sync.RWMutex
	classify func(string) Kind
	nodes    map[InternedString]*node
	// reset holds owners whose edges were dropped after an inconsistency.
	// They are part of every closure until they compile again.
	reset set
}

// NewGraph creates an empty graph. classify assigns kinds to newly seen paths;
// nil classifies everything as KindUnknown.
func NewGraph(classify func(string) Kind) *Graph {
	if classify == nil {
		classify = func(string) Kind { return KindUnknown }
	}
	return &Graph{
		classify: classify,
		nodes:    make(map[InternedString]*node),
		reset:    make(set),
	}
}

// Touch registers path as a live node without changing its edges.
func (g *Graph) Touch(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(NewPath(path)).removed = false
}

// RecordEdges replaces the outgoing edges of source with includes and updates
// the reverse index in the same critical section. Self includes are dropped.
func (g *Graph) RecordEdges(source string, includes []string) {
	src := NewPath(source)

	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.ensure(src)
	n.removed = false
	delete(g.reset, src)

	for inc := range n.includes {
		if dep, ok := g.nodes[inc]; ok {
			delete(dep.dependents, src)
		}
	}
	n.includes = make(set, len(includes))

	for _, p := range includes {
		inc := NewPath(p)
		if inc == src {
			continue
		}
		n.includes[inc] = struct{}{}
		g.ensure(inc).dependents[src] = struct{}{}
	}
}

// Remove tombstones path. Its outgoing edges are dropped immediately, its
// dependents are kept until the next closure over path has reported them.
func (g *Graph) Remove(path string) {
	p := NewPath(path)

	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.ensure(p)
	g.dropIncludes(p, n)
	delete(g.reset, p)
	n.removed = true
}

// Reset drops every edge owned by owner, including reverse entries that name
// it without a forward counterpart, and queues owner for recompilation.
func (g *Graph) Reset(owner string) {
	p := NewPath(owner)

	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.ensure(p)
	g.dropIncludes(p, n)
	for _, other := range g.nodes {
		delete(other.dependents, p)
	}
	g.reset[p] = struct{}{}
}

// Closure returns every target that must be rebuilt after changed.
//
// A config change yields all live content. Otherwise the reverse index is
// walked breadth first from each changed path, collecting content and
// routable assets; a changed target includes itself unless it was removed.
// Every reverse edge walked is checked against the forward index, and a
// mismatch aborts with an ErrGraphInconsistency BuildError naming the owner.
// Tombstones among changed are erased once the walk has reported their
// dependents.
func (g *Graph) Closure(changed []string) ([]string, error) {
	starts := make([]InternedString, 0, len(changed))
	for _, c := range changed {
		starts = append(starts, NewPath(c))
	}

	g.mu.RLock()
	out, tombstones, err := g.walk(starts)
	g.mu.RUnlock()

	if err == nil && len(tombstones) > 0 {
		// Walk again under the write lock so that no edge can attach to a
		// tombstone between reporting its dependents and erasing it.
		g.mu.Lock()
		out, tombstones, err = g.walk(starts)
		if err == nil {
			for _, p := range tombstones {
				g.erase(p)
			}
		}
		g.mu.Unlock()
	}
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(out))
	for p := range out {
		result = append(result, p.String())
	}
	slices.Sort(result)
	return result, nil
}

// walk collects the closure of starts. Caller holds the lock.
func (g *Graph) walk(starts []InternedString) (set, []InternedString, error) {
	out := make(set)
	for p := range g.reset {
		out[p] = struct{}{}
	}

	var tombstones []InternedString
	for _, p := range starts {
		if n, ok := g.nodes[p]; ok && n.removed {
			tombstones = append(tombstones, p)
		}
		if g.kindOf(p) == KindConfig {
			for q, n := range g.nodes {
				if n.kind == KindContent && !n.removed {
					out[q] = struct{}{}
				}
			}
		}
	}

	visited := make(set, len(starts))
	queue := make([]InternedString, 0, len(starts))
	for _, p := range starts {
		if _, seen := visited[p]; !seen {
			visited[p] = struct{}{}
			queue = append(queue, p)
		}
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		n, ok := g.nodes[p]
		if !ok {
			// Never seen: only its own kind can make it a target.
			if g.classify(p.String()).Target() {
				out[p] = struct{}{}
			}
			continue
		}
		if n.kind.Target() && !n.removed {
			out[p] = struct{}{}
		}

		for dep := range n.dependents {
			owner, ok := g.nodes[dep]
			if !ok {
				return nil, nil, NewGraphInconsistency(dep.String(), p.String())
			}
			if _, ok := owner.includes[p]; !ok {
				return nil, nil, NewGraphInconsistency(dep.String(), p.String())
			}
			if _, seen := visited[dep]; !seen {
				visited[dep] = struct{}{}
				queue = append(queue, dep)
			}
		}
	}

	return out, tombstones, nil
}

// erase removes a tombstone together with every edge that points at it.
// Caller holds the write lock.
func (g *Graph) erase(p InternedString) {
	n, ok := g.nodes[p]
	if !ok || !n.removed {
		return
	}
	for dep := range n.dependents {
		if owner, ok := g.nodes[dep]; ok {
			delete(owner.includes, p)
		}
	}
	delete(g.nodes, p)
}

// dropIncludes clears n's forward edges and their reverse entries.
// Caller holds the write lock.
func (g *Graph) dropIncludes(p InternedString, n *node) {
	for inc := range n.includes {
		if dep, ok := g.nodes[inc]; ok {
			delete(dep.dependents, p)
		}
	}
	n.includes = make(set)
}

func (g *Graph) ensure(p InternedString) *node {
	n, ok := g.nodes[p]
	if !ok {
		n = &node{
			kind:       g.classify(p.String()),
			includes:   make(set),
			dependents: make(set),
		}
		g.nodes[p] = n
	}
	return n
}

func (g *Graph) kindOf(p InternedString) Kind {
	if n, ok := g.nodes[p]; ok {
		return n.kind
	}
	return g.classify(p.String())
}

// Kind returns the kind of path, classifying it if the graph has not seen it.
func (g *Graph) Kind(path string) Kind {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.kindOf(NewPath(path))
}

// Has reports whether path is a live node.
func (g *Graph) Has(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[NewPath(path)]
	return ok && !n.removed
}

// Removed reports whether path is a tombstone.
func (g *Graph) Removed(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[NewPath(path)]
	return ok && n.removed
}

// Includes returns the sorted forward edges of path.
func (g *Graph) Includes(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[NewPath(path)]; ok {
		return sorted(n.includes)
	}
	return nil
}

// Dependents returns the sorted reverse edges of path.
func (g *Graph) Dependents(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[NewPath(path)]; ok {
		return sorted(n.dependents)
	}
	return nil
}

// Under returns every live node below dir, sorted.
func (g *Graph) Under(dir string) []string {
	prefix := NewPath(dir).String() + string(filepath.Separator)
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for p, n := range g.nodes {
		if !n.removed && strings.HasPrefix(p.String(), prefix) {
			out = append(out, p.String())
		}
	}
	slices.Sort(out)
	return out
}

// CorruptReverseEdge inserts include -> owner into the reverse index without
// the matching forward edge. Tests use it to drive the recovery path.
func (g *Graph) CorruptReverseEdge(include, owner string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(NewPath(owner))
	g.ensure(NewPath(include)).dependents[NewPath(owner)] = struct{}{}
}

// Targets returns every live content node and routable asset, sorted.
func (g *Graph) Targets() []string {
	return g.collect(func(n *node) bool { return n.kind.Target() })
}

// ContentPaths returns every live content node, sorted.
func (g *Graph) ContentPaths() []string {
	return g.collect(func(n *node) bool { return n.kind == KindContent })
}

func (g *Graph) collect(keep func(*node) bool) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for p, n := range g.nodes {
		if !n.removed && keep(n) {
			out = append(out, p.String())
		}
	}
	slices.Sort(out)
	return out
}

// Len returns the number of nodes, tombstones included.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Verify checks that the reverse index is the exact transpose of the forward index.
func (g *Graph) Verify() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for p, n := range g.nodes {
		for inc := range n.includes {
			target, ok := g.nodes[inc]
			if !ok {
				return NewGraphInconsistency(p.String(), inc.String())
			}
			if _, ok := target.dependents[p]; !ok {
				return NewGraphInconsistency(p.String(), inc.String())
			}
		}
		for dep := range n.dependents {
			owner, ok := g.nodes[dep]
			if !ok {
				return NewGraphInconsistency(dep.String(), p.String())
			}
			if _, ok := owner.includes[p]; !ok {
				return NewGraphInconsistency(dep.String(), p.String())
			}
		}
	}
	return nil
}

func sorted(s set) []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p.String())
	}
	slices.Sort(out)
	return out
}
