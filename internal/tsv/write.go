package tsv

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"curadiff/internal/frame"
)

// WriteMatrix writes m as a tab-separated table. The header lists the column
// labels only; each body row starts with its row label.
func WriteMatrix(w io.Writer, m *frame.Matrix) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, m.Columns)
	cells := make([]string, len(m.Columns)+1)
	for i, row := range m.Values {
		cells[0] = m.Rows[i]
		for j, v := range row {
			cells[j+1] = FormatFloat(v)
		}
		writeRow(bw, cells)
	}
	return bw.Flush()
}

// WriteMatrixGzip writes m through a gzip stream. The gzip header carries no
// timestamp or name so identical matrices compress to identical bytes.
func WriteMatrixGzip(w io.Writer, m *frame.Matrix) error {
	gz := gzip.NewWriter(w)
	if err := WriteMatrix(gz, m); err != nil {
		_ = gz.Close()
		return err
	}
	return gz.Close()
}

// WriteCounts writes a two-column replicate count map without a header.
func WriteCounts(w io.Writer, counts frame.CountMap) error {
	bw := bufio.NewWriter(w)
	for _, entry := range counts {
		writeRow(bw, []string{entry.Label, strconv.Itoa(entry.N)})
	}
	return bw.Flush()
}

func writeRow(bw *bufio.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			bw.WriteByte('\t')
		}
		bw.WriteString(quoteCell(cell))
	}
	bw.WriteByte('\n')
}

// quoteCell quotes a cell only when it holds a tab, quote, or line break.
func quoteCell(cell string) string {
	if !strings.ContainsAny(cell, "\t\"\r\n") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// FormatFloat renders v in its shortest round-trip form: fixed notation with a
// trailing ".0" for integral values, exponent notation outside [1e-4, 1e16).
// NaN renders as an empty cell.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}
	fixed := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(fixed, '.') {
		fixed += ".0"
	}
	return fixed
}
