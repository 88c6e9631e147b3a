package state

// View is read-only access to another segment's state. Every accessor
// returns copies.
type View struct {
	s *State
}

func (v *View) Get(path string) (*Array, error) {
	a, err := v.s.Get(path)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

// Last returns the terminal row of a conditions path.
func (v *View) Last(path string) ([]float64, error) {
	a, err := v.s.Condition(path)
	if err != nil {
		return nil, err
	}
	return a.Last(), nil
}

// LastScalar returns the first component of the terminal row, with ok
// false when the path is absent or empty.
func (v *View) LastScalar(path string) (float64, bool) {
	row, err := v.Last(path)
	if err != nil || len(row) == 0 {
		return 0, false
	}
	return row[0], true
}

// Keys lists the entries of a conditions subtree.
func (v *View) Keys(path string) []string {
	n, err := v.s.Node(join(Conditions, path))
	if err != nil {
		return nil
	}
	return n.Keys()
}

func (v *View) Converged() bool { return v.s.Numerics.Converged }
