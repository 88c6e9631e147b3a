package state

import (
	"fmt"
	"strings"
)

// Node is one level of the state tree. Entries keep insertion order;
// index maps names to positions and is rebuilt on removal.
type Node struct {
	entries []entry
	index   map[string]int
}

type entry struct {
	name   string
	node   *Node
	array  *Array
	static bool
}

func NewNode() *Node {
	return &Node{index: make(map[string]int)}
}

// Keys returns entry names in insertion order.
func (n *Node) Keys() []string {
	keys := make([]string, len(n.entries))
	for i, e := range n.entries {
		keys[i] = e.name
	}
	return keys
}

func (n *Node) Len() int { return len(n.entries) }

func (n *Node) Has(name string) bool {
	_, ok := n.index[name]
	return ok
}

func (n *Node) Child(name string) (*Node, bool) {
	i, ok := n.index[name]
	if !ok || n.entries[i].node == nil {
		return nil, false
	}
	return n.entries[i].node, true
}

func (n *Node) Array(name string) (*Array, bool) {
	i, ok := n.index[name]
	if !ok || n.entries[i].array == nil {
		return nil, false
	}
	return n.entries[i].array, true
}

// Ensure returns the child node called name, creating it when absent.
func (n *Node) Ensure(name string) *Node {
	if c, ok := n.Child(name); ok {
		return c
	}
	c := NewNode()
	n.put(entry{name: name, node: c})
	return c
}

// Put stores a per-point array. Replacing an existing entry keeps its
// position in the key order.
func (n *Node) Put(name string, a *Array) {
	n.put(entry{name: name, array: a})
}

// PutStatic stores an array that row expansion leaves untouched.
func (n *Node) PutStatic(name string, a *Array) {
	n.put(entry{name: name, array: a, static: true})
}

func (n *Node) put(e entry) {
	if i, ok := n.index[e.name]; ok {
		n.entries[i] = e
		return
	}
	n.index[e.name] = len(n.entries)
	n.entries = append(n.entries, e)
}

// Remove deletes an entry and reports whether it existed.
func (n *Node) Remove(name string) bool {
	i, ok := n.index[name]
	if !ok {
		return false
	}
	n.entries = append(n.entries[:i], n.entries[i+1:]...)
	n.reindex()
	return true
}

func (n *Node) reindex() {
	n.index = make(map[string]int, len(n.entries))
	for i, e := range n.entries {
		n.index[e.name] = i
	}
}

// Walk visits every array depth-first in key order.
func (n *Node) Walk(fn func(path string, a *Array) error) error {
	return n.walk("", fn, true)
}

func (n *Node) walk(prefix string, fn func(string, *Array) error, includeStatic bool) error {
	for _, e := range n.entries {
		path := join(prefix, e.name)
		switch {
		case e.node != nil:
			if err := e.node.walk(path, fn, includeStatic); err != nil {
				return err
			}
		case e.array != nil:
			if e.static && !includeStatic {
				continue
			}
			if err := fn(path, e.array); err != nil {
				return err
			}
		}
	}
	return nil
}

// Size is the total element count of every array below n.
func (n *Node) Size() int {
	total := 0
	_ = n.Walk(func(_ string, a *Array) error {
		total += a.Len()
		return nil
	})
	return total
}

func (n *Node) expand(prefix string, rows int) error {
	return n.walk(prefix, func(path string, a *Array) error {
		return a.expand(path, rows)
	}, false)
}

// Clone deep-copies the subtree.
func (n *Node) Clone() *Node {
	c := &Node{entries: make([]entry, len(n.entries))}
	for i, e := range n.entries {
		ce := entry{name: e.name, static: e.static}
		if e.node != nil {
			ce.node = e.node.Clone()
		}
		if e.array != nil {
			ce.array = e.array.Clone()
		}
		c.entries[i] = ce
	}
	c.reindex()
	return c
}

// String renders the tree shape for debugging.
func (n *Node) String() string {
	var b strings.Builder
	_ = n.Walk(func(path string, a *Array) error {
		fmt.Fprintf(&b, "%s [%dx%d]\n", path, a.Rows(), a.Cols())
		return nil
	})
	return b.String()
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
