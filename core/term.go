package core

// ErrNoActiveTerm is returned when an entity has no term history yet.
var ErrNoActiveTerm = NewStateConflictError("no active term")

// TermSequence is the ordered history of terms (offering cycles) an entity has
// run under. It is append-only: terms are never reordered or removed, and the
// last element is always the current term. Callers must go through Current and
// Appended instead of indexing into the slice.
type TermSequence []string

// Current returns the most recently appended term.
func (ts TermSequence) Current() (string, error) {
	if len(ts) == 0 {
		return "", ErrNoActiveTerm
	}
	return ts[len(ts)-1], nil
}

func (ts TermSequence) Contains(term string) bool {
	for _, t := range ts {
		if t == term {
			return true
		}
	}
	return false
}

// Appended returns a copy of ts with term appended. The receiver is never
// mutated in place so historical snapshots stay valid.
func (ts TermSequence) Appended(term string) (TermSequence, error) {
	term = CleanString(term)
	if term == "" {
		return nil, NewInvalidInputError("term is required")
	}
	if ts.Contains(term) {
		return nil, NewStateConflictError("term " + term + " is already present")
	}
	seq := make(TermSequence, len(ts), len(ts)+1)
	copy(seq, ts)
	return append(seq, term), nil
}
