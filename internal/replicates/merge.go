package replicates

import (
	"errors"
	"fmt"

	"curadiff/internal/differential"
	"curadiff/internal/frame"
	"curadiff/internal/grouping"
)

var (
	// ErrNoQualifyingMerge marks a sub-condition merge where no coarse
	// comparison sums to more than one replicate.
	ErrNoQualifyingMerge = errors.New("no qualifying merge")
	// ErrNotSufficientReplicates marks a simple grouping where no descriptor
	// occurs more than once.
	ErrNotSufficientReplicates = errors.New("not sufficient replicates")
)

// subConditionPosition is the condition key position holding the sub-condition.
const subConditionPosition = 1

// MergeSubConditions collapses columns whose conditions differ only in their
// sub-condition. Coarse comparisons whose summed replicate count is at most one
// are dropped.
func MergeSubConditions(m *frame.Matrix) (*frame.Matrix, frame.CountMap, error) {
	coarse := make([]string, len(m.Columns))
	sums := make(map[string]int)
	for j, col := range m.Columns {
		label, err := differential.ParseLabel(col)
		if err != nil {
			return nil, nil, err
		}
		key, err := grouping.DecodeConditionKey(label.Condition)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", col, err)
		}
		merged := differential.Label{
			Treatment: label.Treatment,
			Condition: key.Without(subConditionPosition).Encode(),
		}
		coarse[j] = merged.Comparison()
		sums[coarse[j]] += label.Count
	}

	grouped := m.GroupMedian(coarse)
	keep := make([]int, 0, len(grouped.Columns))
	counts := make(frame.CountMap, 0, len(grouped.Columns))
	for g, label := range grouped.Columns {
		if sums[label] > 1 {
			keep = append(keep, g)
			counts = append(counts, frame.Count{Label: label, N: sums[label]})
		}
	}
	if len(keep) == 0 {
		return nil, nil, fmt.Errorf("%w: %d coarse comparisons, none with more than one replicate", ErrNoQualifyingMerge, len(grouped.Columns))
	}
	return grouped.SelectColumns(keep), counts, nil
}

// FilterCounts keeps the columns backed by more than one replicate and renames
// each to its comparison without the replicate suffix. ok is false when no
// column qualifies.
func FilterCounts(m *frame.Matrix) (out *frame.Matrix, counts frame.CountMap, ok bool, err error) {
	keep := make([]int, 0, len(m.Columns))
	names := make([]string, 0, len(m.Columns))
	for j, col := range m.Columns {
		label, err := differential.ParseLabel(col)
		if err != nil {
			return nil, nil, false, err
		}
		if label.Count <= 1 {
			continue
		}
		keep = append(keep, j)
		names = append(names, label.Comparison())
		counts = append(counts, frame.Count{Label: label.Comparison(), N: label.Count})
	}
	if len(keep) == 0 {
		return nil, nil, false, nil
	}
	out = m.SelectColumns(keep)
	out.Columns = names
	return out, counts, true, nil
}

// SimpleGroup reduces each column to its treatment descriptor and takes the
// median over descriptors shared by more than one column. The count map holds
// the number of columns folded into each retained descriptor.
func SimpleGroup(m *frame.Matrix) (*frame.Matrix, frame.CountMap, error) {
	descriptors := make([]string, len(m.Columns))
	occurrences := make(map[string]int)
	for j, col := range m.Columns {
		descriptors[j] = differential.Descriptor(col)
		occurrences[descriptors[j]]++
	}
	if len(occurrences) == 0 || maxValue(occurrences) <= 1 {
		return nil, nil, fmt.Errorf("%w: %d distinct descriptors, none repeated", ErrNotSufficientReplicates, len(occurrences))
	}

	grouped := m.GroupMedian(descriptors)
	keep := make([]int, 0, len(grouped.Columns))
	counts := make(frame.CountMap, 0, len(grouped.Columns))
	for g, descriptor := range grouped.Columns {
		if occurrences[descriptor] > 1 {
			keep = append(keep, g)
			counts = append(counts, frame.Count{Label: descriptor, N: occurrences[descriptor]})
		}
	}
	return grouped.SelectColumns(keep), counts, nil
}

func maxValue(values map[string]int) int {
	out := 0
	for _, v := range values {
		out = max(out, v)
	}
	return out
}

