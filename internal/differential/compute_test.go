package differential_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"curadiff/internal/differential"
	"curadiff/internal/frame"
	"curadiff/internal/grouping"
)

func assignment(rows map[string][2]string) grouping.Assignment {
	out := grouping.Assignment{
		Conditions: map[string]grouping.ConditionKey{},
		Treatments: map[string]grouping.TreatmentKey{},
	}
	for sample, r := range rows {
		out.Treatments[sample] = grouping.NewTreatmentKey(r[0], nil)
		if r[1] != "" {
			out.Conditions[sample] = grouping.ConditionKey{Pairs: []grouping.Pair{{Field: "Condition", Value: r[1]}}}
		}
	}
	return out
}

func TestComputeSingleGroup(t *testing.T) {
	assign := assignment(map[string][2]string{
		"S1": {"Control", "X"},
		"S2": {"DrugA", "X"},
		"S3": {"Control", "X"},
		"S4": {"DrugA", "X"},
	})
	m := frame.NewMatrix([]string{"g1", "g2"}, []string{"S1", "S2", "S3", "S4"})
	m.Values = [][]float64{
		{1, 5, 3, 7},
		{2, 2, 4, 10},
	}

	got, err := differential.Compute(assign, m)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if !slices.Equal(got.Columns, []string{"DrugA@Condition:X rep 2"}) {
		t.Fatalf("unexpected columns %v", got.Columns)
	}
	// g1: median(5,7)-median(1,3) = 6-2; g2: median(2,10)-median(2,4) = 6-3
	if got.Values[0][0] != 4 || got.Values[1][0] != 3 {
		t.Fatalf("unexpected values %v", got.Values)
	}
}

func TestComputeReplicateCountIsMinimumOfLabelAndControl(t *testing.T) {
	assign := assignment(map[string][2]string{
		"C1": {"Control", "X"},
		"A1": {"DrugA", "X"},
		"A2": {"DrugA", "X"},
		"A3": {"DrugA", "X"},
		"B1": {"DrugB", "X"},
	})
	m := frame.NewMatrix([]string{"g1"}, []string{"C1", "A1", "A2", "A3", "B1"})
	m.Values = [][]float64{{1, 2, 3, 4, 5}}

	got, err := differential.Compute(assign, m)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	want := []string{"DrugA@Condition:X rep 1", "DrugB@Condition:X rep 1"}
	if !slices.Equal(got.Columns, want) {
		t.Fatalf("unexpected columns %v, want %v", got.Columns, want)
	}
	for _, col := range got.Columns {
		if strings.HasPrefix(col, grouping.ControlLabel+"@") {
			t.Fatalf("control column leaked into output: %q", col)
		}
	}
	if got.Values[0][0] != 2 || got.Values[0][1] != 4 {
		t.Fatalf("unexpected values %v", got.Values)
	}
}

func TestComputeJoinsGroupsOnSharedGenes(t *testing.T) {
	assign := assignment(map[string][2]string{
		"C1": {"Control", "X"},
		"A1": {"DrugA", "X"},
		"C2": {"Control", "Y"},
		"A2": {"DrugA", "Y"},
		"N1": {"DrugA", "Z"},
		"N2": {"DrugB", "Z"},
	})
	m := frame.NewMatrix([]string{"g1", "g2"}, []string{"A2", "C2", "A1", "C1", "N1", "N2"})
	m.Values = [][]float64{
		{10, 1, 5, 2, 0, 0},
		{20, 2, 6, 3, 0, 0},
	}

	got, err := differential.Compute(assign, m)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	want := []string{"DrugA@Condition:X rep 1", "DrugA@Condition:Y rep 1"}
	if !slices.Equal(got.Columns, want) {
		t.Fatalf("unexpected columns %v, want %v", got.Columns, want)
	}
	if !slices.Equal(got.Values[0], []float64{3, 9}) || !slices.Equal(got.Values[1], []float64{3, 18}) {
		t.Fatalf("unexpected values %v", got.Values)
	}
}

func TestComputeFailures(t *testing.T) {
	m := frame.NewMatrix([]string{"g1"}, []string{"S1", "S2", "S3"})

	t.Run("insufficient overlap", func(t *testing.T) {
		assign := assignment(map[string][2]string{
			"S1": {"Control", "X"},
			"S2": {"DrugA", ""},
			"S9": {"DrugA", "X"},
		})
		if _, err := differential.Compute(assign, m); !errors.Is(err, differential.ErrInsufficientOverlap) {
			t.Fatalf("expected ErrInsufficientOverlap, got %v", err)
		}
	})

	t.Run("no control", func(t *testing.T) {
		assign := assignment(map[string][2]string{
			"S1": {"DrugB", "X"},
			"S2": {"DrugA", "X"},
			"S3": {"DrugA", "X"},
		})
		if _, err := differential.Compute(assign, m); !errors.Is(err, differential.ErrNoQualifyingGroup) {
			t.Fatalf("expected ErrNoQualifyingGroup, got %v", err)
		}
	})

	t.Run("control only", func(t *testing.T) {
		assign := assignment(map[string][2]string{
			"S1": {"Control", "X"},
			"S2": {"Control", "X"},
			"S3": {"DrugA", "Y"},
		})
		if _, err := differential.Compute(assign, m); !errors.Is(err, differential.ErrNoQualifyingGroup) {
			t.Fatalf("expected ErrNoQualifyingGroup, got %v", err)
		}
	})
}
