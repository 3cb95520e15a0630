package replicates_test

import (
	"errors"
	"slices"
	"testing"

	"curadiff/internal/frame"
	"curadiff/internal/replicates"
)

func matrix(columns []string, values ...[]float64) *frame.Matrix {
	rows := make([]string, len(values))
	for i := range values {
		rows[i] = "g" + string(rune('1'+i))
	}
	m := frame.NewMatrix(rows, columns)
	m.Values = values
	return m
}

func TestMergeSubConditionsSumsCounts(t *testing.T) {
	m := matrix([]string{
		"DrugA@Condition:X&Sub Condition:a rep 1",
		"DrugA@Condition:X&Sub Condition:b rep 2",
		"DrugB@Condition:X&Sub Condition:a rep 1",
	},
		[]float64{1, 3, 5},
		[]float64{10, 20, 30},
	)

	got, counts, err := replicates.MergeSubConditions(m)
	if err != nil {
		t.Fatalf("MergeSubConditions returned error: %v", err)
	}
	if !slices.Equal(got.Columns, []string{"DrugA@Condition:X"}) {
		t.Fatalf("unexpected columns %v", got.Columns)
	}
	if got.Values[0][0] != 2 || got.Values[1][0] != 15 {
		t.Fatalf("unexpected values %v", got.Values)
	}
	want := frame.CountMap{{Label: "DrugA@Condition:X", N: 3}}
	if !slices.Equal(counts, want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
}

func TestMergeSubConditionsKeepsConditionWithoutSubCondition(t *testing.T) {
	m := matrix([]string{"DrugA@Condition:X rep 2"}, []float64{4})

	got, counts, err := replicates.MergeSubConditions(m)
	if err != nil {
		t.Fatalf("MergeSubConditions returned error: %v", err)
	}
	if !slices.Equal(got.Columns, []string{"DrugA@Condition:X"}) || counts[0].N != 2 {
		t.Fatalf("unexpected result %v %v", got.Columns, counts)
	}
}

func TestMergeSubConditionsFailsWithoutReplicates(t *testing.T) {
	m := matrix([]string{
		"DrugA@Condition:X&Sub Condition:a rep 1",
		"DrugA@Condition:Y&Sub Condition:a rep 1",
	}, []float64{1, 2})

	if _, _, err := replicates.MergeSubConditions(m); !errors.Is(err, replicates.ErrNoQualifyingMerge) {
		t.Fatalf("expected ErrNoQualifyingMerge, got %v", err)
	}
}

func TestFilterCounts(t *testing.T) {
	tests := []struct {
		name       string
		columns    []string
		wantOK     bool
		wantLabels []string
		wantCounts []int
	}{
		{
			name:       "keeps replicated columns in order",
			columns:    []string{"C@Condition:Y rep 3", "B@Condition:X rep 1", "A@Condition:X rep 2"},
			wantOK:     true,
			wantLabels: []string{"C@Condition:Y", "A@Condition:X"},
			wantCounts: []int{3, 2},
		},
		{
			name:    "nothing replicated",
			columns: []string{"A@Condition:X rep 1", "B@Condition:X rep 1"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			values := make([]float64, len(tc.columns))
			got, counts, ok, err := replicates.FilterCounts(matrix(tc.columns, values))
			if err != nil {
				t.Fatalf("FilterCounts returned error: %v", err)
			}
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if !slices.Equal(got.Columns, tc.wantLabels) {
				t.Fatalf("columns = %v, want %v", got.Columns, tc.wantLabels)
			}
			for i, c := range counts {
				if c.Label != tc.wantLabels[i] || c.N != tc.wantCounts[i] {
					t.Fatalf("count %d = %+v", i, c)
				}
			}
		})
	}
}

func TestFilterCountsRejectsMalformedLabel(t *testing.T) {
	if _, _, _, err := replicates.FilterCounts(matrix([]string{"A@Condition:X"}, []float64{1})); err == nil {
		t.Fatal("expected error for label without replicate count")
	}
}

func TestSimpleGroupRetainsRepeatedDescriptors(t *testing.T) {
	m := matrix([]string{
		"A@Condition:X rep 1",
		"A@Condition:Y rep 1",
		"B@Condition:X rep 1",
		"C&Dose:1@Condition:X rep 1",
	},
		[]float64{1, 3, 5, 7},
	)

	got, counts, err := replicates.SimpleGroup(m)
	if err != nil {
		t.Fatalf("SimpleGroup returned error: %v", err)
	}
	if !slices.Equal(got.Columns, []string{"A"}) {
		t.Fatalf("unexpected columns %v", got.Columns)
	}
	if got.Values[0][0] != 2 {
		t.Fatalf("median = %v, want 2", got.Values[0][0])
	}
	if !slices.Equal(counts, frame.CountMap{{Label: "A", N: 2}}) {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestSimpleGroupFailsWithoutRepeats(t *testing.T) {
	m := matrix([]string{"A@Condition:X rep 1", "B@Condition:X rep 1"}, []float64{1, 2})
	if _, _, err := replicates.SimpleGroup(m); !errors.Is(err, replicates.ErrNotSufficientReplicates) {
		t.Fatalf("expected ErrNotSufficientReplicates, got %v", err)
	}
}
