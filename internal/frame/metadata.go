package frame

// Metadata is a samples x fields table of string annotations. A missing cell is
// the empty string.
type Metadata struct {
	Samples []string
	Fields  []string
	Values  [][]string
}

// FieldIndex returns the position of the named field, or -1 when absent.
func (m *Metadata) FieldIndex(name string) int {
	if m == nil {
		return -1
	}
	for i, field := range m.Fields {
		if field == name {
			return i
		}
	}
	return -1
}

// HasField reports whether the table carries the named field.
func (m *Metadata) HasField(name string) bool {
	return m.FieldIndex(name) >= 0
}

// Column returns a copy of the named field's values in sample order, or nil when
// the field does not exist.
func (m *Metadata) Column(name string) []string {
	idx := m.FieldIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(m.Samples))
	for row := range m.Samples {
		out[row] = m.Values[row][idx]
	}
	return out
}

// SelectRows returns a new table holding the given rows in the given order.
func (m *Metadata) SelectRows(rows []int) *Metadata {
	out := &Metadata{
		Samples: make([]string, 0, len(rows)),
		Fields:  append([]string(nil), m.Fields...),
		Values:  make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		out.Samples = append(out.Samples, m.Samples[row])
		out.Values = append(out.Values, append([]string(nil), m.Values[row]...))
	}
	return out
}

// SelectFields returns a new table restricted to the given field positions.
func (m *Metadata) SelectFields(fields []int) *Metadata {
	out := &Metadata{
		Samples: append([]string(nil), m.Samples...),
		Fields:  make([]string, 0, len(fields)),
		Values:  make([][]string, len(m.Samples)),
	}
	for _, idx := range fields {
		out.Fields = append(out.Fields, m.Fields[idx])
	}
	for row := range m.Samples {
		values := make([]string, 0, len(fields))
		for _, idx := range fields {
			values = append(values, m.Values[row][idx])
		}
		out.Values[row] = values
	}
	return out
}
