package model

import (
	"fmt"
	"math"
)

// CSC is a read-only compressed-sparse-column view over a matrix supplied by
// the host. Column j spans row indices RowIndex[ColPtr[j]:ColPtr[j+1]), with
// the corresponding entries of Value (if present) giving each cell's
// integer-valued payload. Matrices that are purely structural (the
// dependency graph G, the selection matrix E) carry a nil Value and are
// queried only for column membership.
//
// CSC never copies the host's row-index and column-pointer arrays; it is a
// thin accessor over the slices the caller hands it at construction. Only
// NewCSCFromFloat64 allocates, for the integer-converted Value slice.
type CSC struct {
	NRows int
	NCols int

	RowIndex []int32
	ColPtr   []int32
	Value    []int64
}

// NewCSCStructural builds a structural-only CSC view (no values), used for
// the boolean dependency graph G and selection matrix E.
func NewCSCStructural(nrows, ncols int, ir, jc []int32) (*CSC, error) {
	if err := validateShape(nrows, ncols, ir, jc); err != nil {
		return nil, err
	}
	return &CSC{NRows: nrows, NCols: ncols, RowIndex: ir, ColPtr: jc}, nil
}

// NewCSCFromFloat64 builds a valued CSC view, converting the host's
// real-valued storage to integers. The caller guarantees every entry in pr
// is representable as an integer; entries that are not are rejected with
// INVALID_INPUT rather than silently truncated.
func NewCSCFromFloat64(nrows, ncols int, ir, jc []int32, pr []float64) (*CSC, error) {
	if err := validateShape(nrows, ncols, ir, jc); err != nil {
		return nil, err
	}
	if len(pr) != len(ir) {
		return nil, fmt.Errorf("%w: value length %d does not match row-index length %d", ErrInvalidInput, len(pr), len(ir))
	}
	values := make([]int64, len(pr))
	for i, x := range pr {
		if math.Trunc(x) != x || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: matrix value %v at offset %d is not representable as an integer", ErrInvalidInput, x, i)
		}
		values[i] = int64(x)
	}
	return &CSC{NRows: nrows, NCols: ncols, RowIndex: ir, ColPtr: jc, Value: values}, nil
}

func validateShape(nrows, ncols int, ir, jc []int32) error {
	if nrows < 0 || ncols < 0 {
		return fmt.Errorf("%w: negative matrix dimension (%d, %d)", ErrInvalidInput, nrows, ncols)
	}
	if len(jc) != ncols+1 {
		return fmt.Errorf("%w: column-pointer length %d does not match NCols+1 (%d)", ErrInvalidInput, len(jc), ncols+1)
	}
	for j := 0; j < ncols; j++ {
		if jc[j] > jc[j+1] {
			return fmt.Errorf("%w: column pointers not non-decreasing at column %d", ErrInvalidInput, j)
		}
	}
	if int(jc[ncols]) != len(ir) {
		return fmt.Errorf("%w: row-index length %d does not match final column pointer %d", ErrInvalidInput, len(ir), jc[ncols])
	}
	for _, r := range ir {
		if int(r) < 0 || int(r) >= nrows {
			return fmt.Errorf("%w: row index %d out of range [0,%d)", ErrInvalidInput, r, nrows)
		}
	}
	return nil
}

// Column returns the row indices and, if present, the values stored in
// column j. The returned slices are views into the backing arrays and must
// not be retained past the lifetime of the CSC.
func (m *CSC) Column(j int) (rows []int32, values []int64) {
	start, end := m.ColPtr[j], m.ColPtr[j+1]
	rows = m.RowIndex[start:end]
	if m.Value != nil {
		values = m.Value[start:end]
	}
	return rows, values
}

// Lookup returns the value stored at (row, col), and whether an entry for
// that cell exists at all. For structural matrices the boolean return is
// the only meaningful part. A nil matrix has no entries, so ok is false.
func (m *CSC) Lookup(row, col int) (value int64, ok bool) {
	if m == nil {
		return 0, false
	}
	rows, values := m.Column(col)
	for i, r := range rows {
		if int(r) == row {
			if values != nil {
				return values[i], true
			}
			return 0, true
		}
	}
	return 0, false
}
