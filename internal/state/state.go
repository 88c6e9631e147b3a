package state

import (
	"strings"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/numerics"
)

// Reserved subtrees of every State.
const (
	Unknowns   = "unknowns"
	Residuals  = "residuals"
	Conditions = "conditions"
)

// Numerics records the segment discretization and the outcome of its solve.
type Numerics struct {
	*numerics.Discretization

	Converged   bool
	Evaluations int
	Residual    float64
	Message     string
}

// State is the hierarchical store one segment owns. The unknowns and
// residuals subtrees are solver-facing; conditions holds physics fields.
type State struct {
	root     *Node
	initials *State
	declared map[string]int

	Numerics Numerics
}

func New() *State {
	root := NewNode()
	root.Ensure(Unknowns)
	root.Ensure(Residuals)
	root.Ensure(Conditions)
	return &State{root: root, declared: make(map[string]int)}
}

func (s *State) Root() *Node       { return s.root }
func (s *State) Unknowns() *Node   { return s.root.Ensure(Unknowns) }
func (s *State) Residuals() *Node  { return s.root.Ensure(Residuals) }
func (s *State) Conditions() *Node { return s.root.Ensure(Conditions) }

// Points returns the number of control points the state was expanded to.
func (s *State) Points() int {
	if s.Numerics.Discretization == nil {
		return 0
	}
	return s.Numerics.N()
}

// Node resolves a dotted path to a subtree; the empty path is the root.
func (s *State) Node(path string) (*Node, error) {
	if path == "" {
		return s.root, nil
	}
	n := s.root
	for _, part := range strings.Split(path, ".") {
		c, ok := n.Child(part)
		if !ok {
			return nil, &dynamo.LookupError{Process: "state", Key: path}
		}
		n = c
	}
	return n, nil
}

// EnsureNode resolves a dotted path, creating missing subtrees.
func (s *State) EnsureNode(path string) *Node {
	n := s.root
	if path == "" {
		return n
	}
	for _, part := range strings.Split(path, ".") {
		n = n.Ensure(part)
	}
	return n
}

// Get resolves a dotted path such as
// "conditions.frames.inertial.velocity_vector" to its array.
func (s *State) Get(path string) (*Array, error) {
	parent, name := split(path)
	n, err := s.Node(parent)
	if err != nil {
		return nil, &dynamo.LookupError{Process: "state", Key: path}
	}
	a, ok := n.Array(name)
	if !ok {
		return nil, &dynamo.LookupError{Process: "state", Key: path}
	}
	return a, nil
}

// Condition is Get relative to the conditions subtree.
func (s *State) Condition(path string) (*Array, error) {
	return s.Get(Conditions + "." + path)
}

// Set stores a per-point array at a dotted path, creating parents.
func (s *State) Set(path string, a *Array) {
	parent, name := split(path)
	s.EnsureNode(parent).Put(name, a)
}

// SetCondition is Set relative to the conditions subtree.
func (s *State) SetCondition(path string, a *Array) {
	s.Set(Conditions+"."+path, a)
}

// ExpandRows resizes every per-point array to n rows. Fixed arrays of
// another size fail with a ShapeError.
func (s *State) ExpandRows(n int) error {
	return s.root.expand("", n)
}

// Declare freezes the element count of a subtree. Pack and Unpack on a
// declared subtree fail fast if its size has since changed.
func (s *State) Declare(subtree string) error {
	n, err := s.Node(subtree)
	if err != nil {
		return err
	}
	_ = n.Walk(func(_ string, a *Array) error {
		a.Fix()
		return nil
	})
	s.declared[subtree] = n.Size()
	return nil
}

// Declared reports the frozen size of a subtree.
func (s *State) Declared(subtree string) (int, bool) {
	size, ok := s.declared[subtree]
	return size, ok
}

// Pack concatenates the arrays of a subtree in key order, each
// flattened row-major.
func (s *State) Pack(subtree string) (dynamo.Vector, error) {
	n, err := s.checkedNode(subtree)
	if err != nil {
		return nil, err
	}
	out := make(dynamo.Vector, 0, n.Size())
	_ = n.Walk(func(_ string, a *Array) error {
		out = append(out, a.Data()...)
		return nil
	})
	return out, nil
}

// Unpack is the inverse of Pack. Values are copied, never aliased.
func (s *State) Unpack(subtree string, v dynamo.Vector) error {
	n, err := s.checkedNode(subtree)
	if err != nil {
		return err
	}
	if size := n.Size(); len(v) != size {
		return &dynamo.ShapeError{Path: subtree, Want: size, Got: len(v)}
	}
	offset := 0
	return n.Walk(func(_ string, a *Array) error {
		offset += copy(a.Data(), v[offset:offset+a.Len()])
		return nil
	})
}

func (s *State) checkedNode(subtree string) (*Node, error) {
	n, err := s.Node(subtree)
	if err != nil {
		return nil, err
	}
	if want, ok := s.declared[subtree]; ok {
		if got := n.Size(); got != want {
			return nil, &dynamo.ShapeError{Path: subtree, Want: want, Got: got}
		}
	}
	return n, nil
}

// SetInitials links the previous segment's state. The link is a
// reference, reachable only through the read-only View.
func (s *State) SetInitials(prev *State) { s.initials = prev }

// Initials returns a read-only view of the previous segment's state, or
// nil for the first segment of a mission.
func (s *State) Initials() *View {
	if s.initials == nil {
		return nil
	}
	return &View{s: s.initials}
}

// Snapshot deep-copies the tree and numerics, dropping the initials link.
func (s *State) Snapshot() *State {
	c := &State{root: s.root.Clone(), declared: make(map[string]int, len(s.declared)), Numerics: s.Numerics}
	for k, v := range s.declared {
		c.declared[k] = v
	}
	return c
}

func split(path string) (parent, name string) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
