package sparse

import (
	"errors"
	"fmt"
	"sort"

	"fortio.org/safecast"
)

var (
	ErrDimensionMismatch = errors.New("sparse: dimension mismatch")
	ErrOutOfRange        = errors.New("sparse: index out of range")
)

// CSR is a compressed sparse row matrix. Values are never mutated after
// Build; every operation that changes shape returns a new matrix.
type CSR struct {
	rows    int
	cols    int
	indptr  []int
	indices []int32
	data    []float64
}

func (m *CSR) Rows() int { return m.rows }
func (m *CSR) Cols() int { return m.cols }
func (m *CSR) NNZ() int  { return len(m.data) }

// Row returns the column indices and values of row i. The slices alias the
// matrix storage and must be treated as read-only.
func (m *CSR) Row(i int) ([]int32, []float64) {
	start, end := m.indptr[i], m.indptr[i+1]
	return m.indices[start:end], m.data[start:end]
}

// RowDot computes the dot product of row i with a dense vector.
func (m *CSR) RowDot(i int, w []float64) float64 {
	idx, vals := m.Row(i)
	sum := 0.0
	for k, c := range idx {
		sum += vals[k] * w[c]
	}
	return sum
}

// At returns the stored value at (i, j) or zero.
func (m *CSR) At(i, j int) (float64, error) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return 0, fmt.Errorf("at (%d,%d) in %dx%d: %w", i, j, m.rows, m.cols, ErrOutOfRange)
	}
	idx, vals := m.Row(i)
	k := sort.Search(len(idx), func(k int) bool { return int(idx[k]) >= j })
	if k < len(idx) && int(idx[k]) == j {
		return vals[k], nil
	}
	return 0, nil
}

// VStack stacks matrices vertically in argument order.
func VStack(ms ...*CSR) (*CSR, error) {
	if len(ms) == 0 {
		return &CSR{indptr: []int{0}}, nil
	}
	cols := ms[0].cols
	rows, nnz := 0, 0
	for _, m := range ms {
		if m.cols != cols {
			return nil, fmt.Errorf("vstack %d vs %d columns: %w", cols, m.cols, ErrDimensionMismatch)
		}
		rows += m.rows
		nnz += len(m.data)
	}
	out := &CSR{
		rows:    rows,
		cols:    cols,
		indptr:  make([]int, 1, rows+1),
		indices: make([]int32, 0, nnz),
		data:    make([]float64, 0, nnz),
	}
	for _, m := range ms {
		base := len(out.data)
		for _, p := range m.indptr[1:] {
			out.indptr = append(out.indptr, base+p)
		}
		out.indices = append(out.indices, m.indices...)
		out.data = append(out.data, m.data...)
	}
	return out, nil
}

// SelectRows returns a new matrix holding the given rows in the given order.
func (m *CSR) SelectRows(rows []int) (*CSR, error) {
	b := NewBuilder(m.cols)
	for _, r := range rows {
		if r < 0 || r >= m.rows {
			return nil, fmt.Errorf("select row %d of %d: %w", r, m.rows, ErrOutOfRange)
		}
		idx, vals := m.Row(r)
		b.indices = append(b.indices, idx...)
		b.data = append(b.data, vals...)
		b.indptr = append(b.indptr, len(b.data))
	}
	return b.Build(), nil
}

// Builder assembles a CSR matrix row by row.
type Builder struct {
	cols    int
	indptr  []int
	indices []int32
	data    []float64
}

func NewBuilder(cols int) *Builder {
	return &Builder{cols: cols, indptr: []int{0}}
}

// AppendRow adds a row. Column indices need not be sorted; zeros are
// dropped.
func (b *Builder) AppendRow(cols []int, vals []float64) error {
	if len(cols) != len(vals) {
		return fmt.Errorf("row with %d indices and %d values: %w", len(cols), len(vals), ErrDimensionMismatch)
	}
	start := len(b.indices)
	for k, c := range cols {
		if c < 0 || c >= b.cols {
			return fmt.Errorf("column %d of %d: %w", c, b.cols, ErrOutOfRange)
		}
		if vals[k] == 0 {
			continue
		}
		c32, err := safecast.Conv[int32](c)
		if err != nil {
			return fmt.Errorf("column %d: %w", c, err)
		}
		b.indices = append(b.indices, c32)
		b.data = append(b.data, vals[k])
	}
	sort.Sort(rowSorter{idx: b.indices[start:], val: b.data[start:]})
	b.indptr = append(b.indptr, len(b.data))
	return nil
}

func (b *Builder) Build() *CSR {
	return &CSR{
		rows:    len(b.indptr) - 1,
		cols:    b.cols,
		indptr:  b.indptr,
		indices: b.indices,
		data:    b.data,
	}
}

type rowSorter struct {
	idx []int32
	val []float64
}

func (s rowSorter) Len() int           { return len(s.idx) }
func (s rowSorter) Less(i, j int) bool { return s.idx[i] < s.idx[j] }
func (s rowSorter) Swap(i, j int) {
	s.idx[i], s.idx[j] = s.idx[j], s.idx[i]
	s.val[i], s.val[j] = s.val[j], s.val[i]
}
