package metadata

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"curadiff/internal/frame"
)

// Well-known annotation fields.
const (
	FieldTreatment    = "Treatment"
	FieldCondition    = "Condition"
	FieldSubCondition = "Sub Condition"
)

// MinSamples is the fewest fully annotated samples a dataset needs.
const MinSamples = 2

var (
	// ErrMissingColumns marks metadata lacking Treatment or Condition.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrInsufficientSamples marks metadata with fewer than MinSamples annotated rows.
	ErrInsufficientSamples = errors.New("insufficient samples")
)

// separatorEscaper replaces the characters reserved for composite keys.
var separatorEscaper = strings.NewReplacer("&", "-", "@", "-")

// Result is a sanitized metadata table.
type Result struct {
	Table           *frame.Metadata
	HasSubCondition bool
	DroppedRows     int
	DroppedFields   []string
}

// Sanitize validates and cleans raw metadata. The input table is not modified.
func Sanitize(raw *frame.Metadata) (Result, error) {
	if raw == nil {
		return Result{}, fmt.Errorf("%w: empty table", ErrMissingColumns)
	}
	normalized := normalizeTable(raw)

	treatment := normalized.FieldIndex(FieldTreatment)
	condition := normalized.FieldIndex(FieldCondition)
	if treatment < 0 || condition < 0 {
		return Result{}, fmt.Errorf("%w: need %q and %q, have %s",
			ErrMissingColumns, FieldTreatment, FieldCondition, strings.Join(normalized.Fields, ", "))
	}

	rows := make([]int, 0, len(normalized.Samples))
	for row, values := range normalized.Values {
		if values[treatment] == "" || values[condition] == "" {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) < MinSamples {
		return Result{}, fmt.Errorf("%w: %d annotated samples, need %d", ErrInsufficientSamples, len(rows), MinSamples)
	}
	table := normalized.SelectRows(rows)

	keep := make([]int, 0, len(table.Fields))
	var dropped []string
	for idx, field := range table.Fields {
		if fieldPopulated(table, idx) {
			keep = append(keep, idx)
			continue
		}
		dropped = append(dropped, field)
	}
	table = table.SelectFields(keep)

	for _, values := range table.Values {
		for i, v := range values {
			values[i] = EscapeSeparators(v)
		}
	}

	return Result{
		Table:           table,
		HasSubCondition: table.HasField(FieldSubCondition),
		DroppedRows:     len(raw.Samples) - len(rows),
		DroppedFields:   dropped,
	}, nil
}

// EscapeSeparators rewrites the reserved composite-key separators in value.
func EscapeSeparators(value string) string {
	return separatorEscaper.Replace(value)
}

func fieldPopulated(table *frame.Metadata, idx int) bool {
	for _, values := range table.Values {
		if values[idx] != "" {
			return true
		}
	}
	return false
}

func normalizeTable(raw *frame.Metadata) *frame.Metadata {
	out := &frame.Metadata{
		Samples: append([]string(nil), raw.Samples...),
		Fields:  make([]string, len(raw.Fields)),
		Values:  make([][]string, len(raw.Values)),
	}
	for i, field := range raw.Fields {
		out.Fields[i] = norm.NFC.String(field)
	}
	for row, values := range raw.Values {
		cleaned := make([]string, len(values))
		for i, v := range values {
			cleaned[i] = norm.NFC.String(v)
		}
		out.Values[row] = cleaned
	}
	return out
}
