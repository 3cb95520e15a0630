package pipeline_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"curadiff/internal/frame"
	"curadiff/internal/metadata"
	"curadiff/internal/pipeline"
)

// sanitized builds a metadata table through Sanitize so tests see the same
// table shape the runner does.
func sanitized(t *testing.T, fields []string, rows map[string][]string, order []string) metadata.Result {
	t.Helper()

	raw := &frame.Metadata{Fields: fields}
	for _, sample := range order {
		raw.Samples = append(raw.Samples, sample)
		raw.Values = append(raw.Values, rows[sample])
	}
	res, err := metadata.Sanitize(raw)
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	return res
}

func matrix(rows, columns []string, values ...[]float64) *frame.Matrix {
	m := frame.NewMatrix(rows, columns)
	m.Values = values
	return m
}

func resolve(t *testing.T, md metadata.Result, m *frame.Matrix) (pipeline.Result, error) {
	t.Helper()
	return pipeline.Resolve(context.Background(), pipeline.Input{
		Table:           md.Table,
		HasSubCondition: md.HasSubCondition,
		Matrix:          m,
	}, nil)
}

func TestResolveSingleConditionUsesCountFilter(t *testing.T) {
	md := sanitized(t, []string{"Treatment", "Condition"}, map[string][]string{
		"S1": {"Control", "X"},
		"S2": {"DrugA", "X"},
		"S3": {"Control", "X"},
		"S4": {"DrugA", "X"},
	}, []string{"S1", "S2", "S3", "S4"})
	m := matrix([]string{"g1", "g2"}, []string{"S1", "S2", "S3", "S4"},
		[]float64{1, 5, 3, 7},
		[]float64{2, 2, 4, 10},
	)

	got, err := resolve(t, md, m)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Path != pipeline.PathCountFilter {
		t.Fatalf("unexpected path %q", got.Path)
	}
	if got.Intermediate != nil {
		t.Fatal("count filter path should not produce an intermediate matrix")
	}
	if !slices.Equal(got.Matrix.Columns, []string{"DrugA@Condition:X"}) {
		t.Fatalf("unexpected columns %v", got.Matrix.Columns)
	}
	if got.Matrix.Values[0][0] != 4 || got.Matrix.Values[1][0] != 3 {
		t.Fatalf("unexpected values %v", got.Matrix.Values)
	}
	if n, ok := got.Counts.Lookup("DrugA@Condition:X"); !ok || n != 2 {
		t.Fatalf("unexpected count map %v", got.Counts)
	}
}

func TestResolveFallsBackToSimpleGrouping(t *testing.T) {
	md := sanitized(t, []string{"Treatment", "Condition"}, map[string][]string{
		"CX": {"Control", "X"}, "AX": {"A", "X"},
		"CY": {"Control", "Y"}, "AY": {"A", "Y"},
		"CZ": {"Control", "Z"}, "BZ": {"B", "Z"},
		"CW": {"Control", "W"}, "KW": {"C", "W"},
	}, []string{"CX", "AX", "CY", "AY", "CZ", "BZ", "CW", "KW"})
	m := matrix([]string{"g1", "g2"}, []string{"CX", "AX", "CY", "AY", "CZ", "BZ", "CW", "KW"},
		[]float64{1, 3, 1, 5, 1, 2, 1, 7},
		[]float64{2, 2, 0, 0, 1, 1, 0, 0},
	)

	got, err := resolve(t, md, m)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Path != pipeline.PathSimpleGroup {
		t.Fatalf("unexpected path %q", got.Path)
	}
	if !slices.Equal(got.Matrix.Columns, []string{"A"}) {
		t.Fatalf("expected only the A descriptor, got %v", got.Matrix.Columns)
	}
	if !slices.Equal(got.Matrix.Rows, []string{"g1"}) {
		t.Fatalf("all-zero gene should be dropped, rows %v", got.Matrix.Rows)
	}
	if got.Matrix.Values[0][0] != 3 {
		t.Fatalf("expected median 3, got %v", got.Matrix.Values[0][0])
	}
	if n, ok := got.Counts.Lookup("A"); !ok || n != 2 || len(got.Counts) != 1 {
		t.Fatalf("unexpected count map %v", got.Counts)
	}
	if got.Intermediate == nil || len(got.Intermediate.Columns) != 4 {
		t.Fatalf("expected four-column intermediate, got %+v", got.Intermediate)
	}
}

func TestResolveSubConditionMerge(t *testing.T) {
	md := sanitized(t, []string{"Treatment", "Condition", "Sub Condition"}, map[string][]string{
		"C1": {"Control", "X", "s1"},
		"D1": {"DrugA", "X", "s1"},
		"C2": {"Control", "X", "s2"},
		"D2": {"DrugA", "X", "s2"},
	}, []string{"C1", "D1", "C2", "D2"})
	m := matrix([]string{"g1"}, []string{"C1", "D1", "C2", "D2"}, []float64{1, 3, 1, 5})

	got, err := resolve(t, md, m)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Path != pipeline.PathSubCondition {
		t.Fatalf("unexpected path %q", got.Path)
	}
	wantIntermediate := []string{
		"DrugA@Condition:X&Sub Condition:s1 rep 1",
		"DrugA@Condition:X&Sub Condition:s2 rep 1",
	}
	if got.Intermediate == nil || !slices.Equal(got.Intermediate.Columns, wantIntermediate) {
		t.Fatalf("unexpected intermediate %+v", got.Intermediate)
	}
	if !slices.Equal(got.Matrix.Columns, []string{"DrugA@Condition:X"}) {
		t.Fatalf("unexpected merged columns %v", got.Matrix.Columns)
	}
	if got.Matrix.Values[0][0] != 3 {
		t.Fatalf("expected merged median 3, got %v", got.Matrix.Values[0][0])
	}
	if n, _ := got.Counts.Lookup("DrugA@Condition:X"); n != 2 {
		t.Fatalf("expected summed count 2, got %v", got.Counts)
	}
}

func TestResolveStopsAtFirstSuccessfulScheme(t *testing.T) {
	// The first scheme pairs DrugA with its controls. The final scheme would
	// also keep DrugB, but it must never be reached.
	md := sanitized(t, []string{"Treatment", "Condition", "Cell"}, map[string][]string{
		"C1": {"Control", "X", "a"},
		"C2": {"Control", "X", "a"},
		"A1": {"DrugA", "X", "a"},
		"A2": {"DrugA", "X", "a"},
		"B1": {"DrugB", "X", "b"},
		"B2": {"DrugB", "X", "b"},
	}, []string{"C1", "C2", "A1", "A2", "B1", "B2"})
	m := matrix([]string{"g1"}, []string{"C1", "C2", "A1", "A2", "B1", "B2"}, []float64{1, 1, 2, 2, 3, 3})

	got, err := resolve(t, md, m)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Scheme.Index != 0 {
		t.Fatalf("expected first scheme, got %s", got.Scheme)
	}
	if !slices.Equal(got.Matrix.Columns, []string{"DrugA@Condition:X&Cell:a"}) {
		t.Fatalf("unexpected columns %v", got.Matrix.Columns)
	}
}

func TestResolveAdvancesPastFailingScheme(t *testing.T) {
	md := sanitized(t, []string{"Treatment", "Condition", "Cell"}, map[string][]string{
		"C1": {"Control", "X", "a"},
		"C2": {"Control", "X", "a"},
		"A1": {"DrugA", "X", "b"},
		"A2": {"DrugA", "X", "b"},
	}, []string{"C1", "C2", "A1", "A2"})
	m := matrix([]string{"g1"}, []string{"C1", "C2", "A1", "A2"}, []float64{1, 1, 4, 6})

	got, err := resolve(t, md, m)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Scheme.Index != 1 {
		t.Fatalf("expected final scheme, got %s", got.Scheme)
	}
	if !slices.Equal(got.Matrix.Columns, []string{"DrugA&Cell:b@Condition:X"}) {
		t.Fatalf("unexpected columns %v", got.Matrix.Columns)
	}
	if got.Matrix.Values[0][0] != 4 {
		t.Fatalf("unexpected value %v", got.Matrix.Values[0][0])
	}
}

func TestResolveExhausted(t *testing.T) {
	md := sanitized(t, []string{"Treatment", "Condition"}, map[string][]string{
		"C1": {"Control", "X"},
		"C2": {"Control", "X"},
	}, []string{"C1", "C2"})
	m := matrix([]string{"g1"}, []string{"C1", "C2"}, []float64{1, 2})

	_, err := resolve(t, md, m)
	if !errors.Is(err, pipeline.ErrSchemeExhausted) {
		t.Fatalf("expected ErrSchemeExhausted, got %v", err)
	}
	var exhausted *pipeline.ExhaustedError
	if !errors.As(err, &exhausted) || len(exhausted.Attempts) != 1 {
		t.Fatalf("expected one recorded attempt, got %v", err)
	}
	if kind := pipeline.Classify(exhausted.Attempts[0].Err); kind != pipeline.KindNoQualifyingGroup {
		t.Fatalf("unexpected attempt kind %q", kind)
	}
	if pipeline.Classify(err) != pipeline.KindSchemeExhausted {
		t.Fatalf("unexpected kind %q", pipeline.Classify(err))
	}
}

func TestResolveHonoursCancellation(t *testing.T) {
	md := sanitized(t, []string{"Treatment", "Condition"}, map[string][]string{
		"C1": {"Control", "X"},
		"A1": {"DrugA", "X"},
	}, []string{"C1", "A1"})
	m := matrix([]string{"g1"}, []string{"C1", "A1"}, []float64{1, 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Resolve(ctx, pipeline.Input{Table: md.Table, Matrix: m}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{metadata.ErrMissingColumns, pipeline.KindMissingColumns},
		{metadata.ErrInsufficientSamples, pipeline.KindInsufficientSamples},
		{pipeline.ErrLoad, pipeline.KindLoadFailed},
		{pipeline.ErrWrite, pipeline.KindWriteFailed},
		{context.Canceled, pipeline.KindCanceled},
		{errors.New("boom"), pipeline.KindUnknown},
	}
	for _, tc := range tests {
		if got := pipeline.Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
