package frame

import (
	"math"
	"slices"
)

// Matrix is a genes x columns table of expression values. Columns are sample
// identifiers on input and differential labels after processing. NaN marks a
// missing value.
type Matrix struct {
	Rows    []string
	Columns []string
	Values  [][]float64
}

// NewMatrix allocates a zero-filled matrix with the given row and column labels.
func NewMatrix(rows, columns []string) *Matrix {
	m := &Matrix{
		Rows:    append([]string(nil), rows...),
		Columns: append([]string(nil), columns...),
		Values:  make([][]float64, len(rows)),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(columns))
	}
	return m
}

// ColumnIndex maps each column label to its first position.
func (m *Matrix) ColumnIndex() map[string]int {
	index := make(map[string]int, len(m.Columns))
	for j, col := range m.Columns {
		if _, ok := index[col]; !ok {
			index[col] = j
		}
	}
	return index
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		Rows:    append([]string(nil), m.Rows...),
		Columns: append([]string(nil), m.Columns...),
		Values:  make([][]float64, len(m.Values)),
	}
	for i, row := range m.Values {
		out.Values[i] = append([]float64(nil), row...)
	}
	return out
}

// SelectColumns returns a new matrix holding the given column positions in order.
func (m *Matrix) SelectColumns(cols []int) *Matrix {
	out := &Matrix{
		Rows:    append([]string(nil), m.Rows...),
		Columns: make([]string, 0, len(cols)),
		Values:  make([][]float64, len(m.Rows)),
	}
	for _, j := range cols {
		out.Columns = append(out.Columns, m.Columns[j])
	}
	for i, row := range m.Values {
		values := make([]float64, 0, len(cols))
		for _, j := range cols {
			values = append(values, row[j])
		}
		out.Values[i] = values
	}
	return out
}

// GroupMedian collapses columns sharing a key into one column holding the
// per-row median. keys[j] is the group of column j. Result columns are the
// distinct keys in sorted order.
func (m *Matrix) GroupMedian(keys []string) *Matrix {
	members := make(map[string][]int)
	for j, key := range keys {
		members[key] = append(members[key], j)
	}
	labels := make([]string, 0, len(members))
	for key := range members {
		labels = append(labels, key)
	}
	slices.Sort(labels)

	out := NewMatrix(m.Rows, labels)
	buf := make([]float64, 0, len(keys))
	for i, row := range m.Values {
		for g, label := range labels {
			buf = buf[:0]
			for _, j := range members[label] {
				buf = append(buf, row[j])
			}
			out.Values[i][g] = Median(buf)
		}
	}
	return out
}

// DropZeroRows removes rows whose values are exactly zero in every column.
// NaN is not zero, so a row holding NaN survives.
func (m *Matrix) DropZeroRows() *Matrix {
	out := &Matrix{Columns: append([]string(nil), m.Columns...)}
	for i, row := range m.Values {
		if allZero(row) {
			continue
		}
		out.Rows = append(out.Rows, m.Rows[i])
		out.Values = append(out.Values, append([]float64(nil), row...))
	}
	return out
}

func allZero(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return false
		}
	}
	return true
}

// JoinColumns concatenates the columns of every frame over the rows present in
// all of them. Row order follows the first frame.
func JoinColumns(frames ...*Matrix) *Matrix {
	if len(frames) == 0 {
		return &Matrix{}
	}
	indexes := make([]map[string]int, len(frames))
	for f, frame := range frames {
		index := make(map[string]int, len(frame.Rows))
		for i, row := range frame.Rows {
			if _, ok := index[row]; !ok {
				index[row] = i
			}
		}
		indexes[f] = index
	}

	out := &Matrix{}
	for _, frame := range frames {
		out.Columns = append(out.Columns, frame.Columns...)
	}
	for _, row := range frames[0].Rows {
		positions := make([]int, len(frames))
		shared := true
		for f := range frames {
			pos, ok := indexes[f][row]
			if !ok {
				shared = false
				break
			}
			positions[f] = pos
		}
		if !shared {
			continue
		}
		values := make([]float64, 0, len(out.Columns))
		for f, frame := range frames {
			values = append(values, frame.Values[positions[f]]...)
		}
		out.Rows = append(out.Rows, row)
		out.Values = append(out.Values, values)
	}
	return out
}

// Median returns the median of the non-NaN values, or NaN when none remain.
// The input slice is not modified.
func Median(values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	n := len(clean)
	if n == 0 {
		return math.NaN()
	}
	slices.Sort(clean)
	if n%2 == 1 {
		return clean[n/2]
	}
	return (clean[n/2-1] + clean[n/2]) / 2
}
