package tsv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"curadiff/internal/frame"
)

// ErrMalformed is returned when a table cannot be parsed.
var ErrMalformed = errors.New("malformed table")

// missingTokens are cell spellings treated as absent values.
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw cell denotes a missing value.
func IsMissing(cell string) bool {
	_, ok := missingTokens[cell]
	return ok
}

// ReadMetadataFile loads a metadata table from path.
func ReadMetadataFile(path string) (*frame.Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	md, err := ReadMetadata(file)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	return md, nil
}

// ReadMetadata parses a tab-separated metadata table whose first column holds
// sample identifiers. Missing cells become the empty string.
func ReadMetadata(r io.Reader) (*frame.Metadata, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	header, body, err := splitHeader(records)
	if err != nil {
		return nil, err
	}

	md := &frame.Metadata{Fields: header}
	seen := make(map[string]struct{}, len(body))
	for n, rec := range body {
		sample := rec[0]
		if _, dup := seen[sample]; dup {
			return nil, fmt.Errorf("%w: duplicate sample %q on line %d", ErrMalformed, sample, n+2)
		}
		seen[sample] = struct{}{}

		values, err := padRecord(rec[1:], len(header), n+2)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if IsMissing(v) {
				values[i] = ""
			}
		}
		md.Samples = append(md.Samples, sample)
		md.Values = append(md.Values, values)
	}
	return md, nil
}

// ReadMatrixFile loads an expression matrix from path, decompressing gzip
// content when present.
func ReadMatrixFile(path string) (*frame.Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	m, err := ReadMatrix(file)
	if err != nil {
		return nil, fmt.Errorf("read matrix %s: %w", path, err)
	}
	return m, nil
}

// ReadMatrix parses a genes x samples numeric table. Gzip input is detected by
// its magic bytes. Missing cells become NaN; any other non-numeric cell is an
// error.
func ReadMatrix(r io.Reader) (*frame.Matrix, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	records, err := readRecords(src)
	if err != nil {
		return nil, err
	}
	header, body, err := splitHeader(records)
	if err != nil {
		return nil, err
	}
	seenCols := make(map[string]struct{}, len(header))
	for _, col := range header {
		if _, dup := seenCols[col]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformed, col)
		}
		seenCols[col] = struct{}{}
	}

	m := &frame.Matrix{Columns: header}
	seenRows := make(map[string]struct{}, len(body))
	for n, rec := range body {
		line := n + 2
		gene := rec[0]
		if _, dup := seenRows[gene]; dup {
			return nil, fmt.Errorf("%w: duplicate row %q on line %d", ErrMalformed, gene, line)
		}
		seenRows[gene] = struct{}{}

		cells, err := padRecord(rec[1:], len(header), line)
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(cells))
		for j, cell := range cells {
			if IsMissing(cell) {
				values[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: non-numeric value %q", ErrMalformed, line, header[j], cell)
			}
			values[j] = v
		}
		m.Rows = append(m.Rows, gene)
		m.Values = append(m.Values, values)
	}
	return m, nil
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return records, nil
}

// splitHeader separates the header from the body and drops the index label.
// A header one cell shorter than the first body row has no index label.
func splitHeader(records [][]string) ([]string, [][]string, error) {
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty table", ErrMalformed)
	}
	header := records[0]
	body := records[1:]
	for n, rec := range body {
		if len(rec) == 0 || (len(rec) == 1 && rec[0] == "") {
			return nil, nil, fmt.Errorf("%w: empty row on line %d", ErrMalformed, n+2)
		}
	}
	if len(body) > 0 && len(body[0]) == len(header)+1 {
		return append([]string(nil), header...), body, nil
	}
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("%w: empty header", ErrMalformed)
	}
	return append([]string(nil), header[1:]...), body, nil
}

func padRecord(cells []string, width, line int) ([]string, error) {
	if len(cells) > width {
		return nil, fmt.Errorf("%w: line %d has %d cells, header has %d", ErrMalformed, line, len(cells), width)
	}
	out := make([]string, width)
	copy(out, cells)
	return out, nil
}
