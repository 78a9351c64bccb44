// Package results loads the MATLAB-style result files written by the
// external transport solver: the scalar/vector summary table and the
// per-detector tally table. Both are read once and immutable afterwards.
package results

// ResultTable maps solver output field names to their numeric payload.
// Vector fields are stored flattened in file order, which for summary
// fields means (value, relative-uncertainty) pairs.
type ResultTable struct {
	fields map[string][]float64
	order  []string
}

// NewResultTable builds a table from pre-parsed fields. Used by tests and
// by the parser; callers must not mutate the value slices afterwards.
func NewResultTable(fields map[string][]float64) *ResultTable {
	t := &ResultTable{fields: make(map[string][]float64, len(fields))}
	for name, vals := range fields {
		t.fields[name] = vals
		t.order = append(t.order, name)
	}
	return t
}

// Has reports whether a field with the given name was present in the file.
func (t *ResultTable) Has(name string) bool {
	_, ok := t.fields[name]
	return ok
}

// Get returns the full value vector for a field.
func (t *ResultTable) Get(name string) ([]float64, bool) {
	vals, ok := t.fields[name]
	return vals, ok
}

// First returns the first element of a field, the convention for fields
// that are semantically scalar but stored as (value, error) pairs.
func (t *ResultTable) First(name string) (float64, bool) {
	vals, ok := t.fields[name]
	if !ok || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// Len returns the number of fields in the table.
func (t *ResultTable) Len() int { return len(t.fields) }

func (t *ResultTable) add(name string, vals []float64) bool {
	if _, exists := t.fields[name]; exists {
		// First occurrence wins: a repeated assignment means the file holds
		// more than one index point and we only process the first.
		return false
	}
	t.fields[name] = vals
	t.order = append(t.order, name)
	return true
}
