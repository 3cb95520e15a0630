package differential_test

import (
	"errors"
	"testing"

	"curadiff/internal/differential"
)

func TestLabelRoundTrip(t *testing.T) {
	labels := []differential.Label{
		{Treatment: "DrugA", Condition: "Condition:X", Count: 2},
		{Treatment: "DrugA&Dose:10_Time:2h", Condition: "Condition:HeLa&Sub Condition:early&Cell:a", Count: 12},
		{Treatment: "Drug rep B", Condition: "Condition:rep 3", Count: 1},
	}
	for _, want := range labels {
		got, err := differential.ParseLabel(want.String())
		if err != nil {
			t.Fatalf("ParseLabel(%q) returned error: %v", want.String(), err)
		}
		if got != want {
			t.Fatalf("ParseLabel(%q) = %+v, want %+v", want.String(), got, want)
		}
	}
}

func TestParseLabelRejectsMalformed(t *testing.T) {
	for _, input := range []string{"DrugA@X", "DrugA rep 2", "DrugA@X rep two"} {
		if _, err := differential.ParseLabel(input); !errors.Is(err, differential.ErrMalformedLabel) {
			t.Errorf("ParseLabel(%q): expected ErrMalformedLabel, got %v", input, err)
		}
	}
}

func TestDescriptor(t *testing.T) {
	cases := map[string]string{
		"DrugA&Dose:10@Condition:X rep 1": "DrugA",
		"DrugA@Condition:X&Cell:a rep 3":  "DrugA",
		"DrugB@Condition:X":               "DrugB",
		"Plain":                           "Plain",
	}
	for input, want := range cases {
		if got := differential.Descriptor(input); got != want {
			t.Errorf("Descriptor(%q) = %q, want %q", input, got, want)
		}
	}
}
