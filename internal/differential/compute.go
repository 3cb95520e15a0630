package differential

import (
	"errors"
	"fmt"
	"slices"

	"curadiff/internal/frame"
	"curadiff/internal/grouping"
)

var (
	// ErrInsufficientOverlap marks fewer than two samples shared by the matrix
	// and both key sets.
	ErrInsufficientOverlap = errors.New("insufficient sample overlap")
	// ErrNoQualifyingGroup marks a scheme where no condition group has a
	// Control label and another treatment label.
	ErrNoQualifyingGroup = errors.New("no qualifying condition group")
)

// Compute returns the differential matrix for one scheme's key assignment.
func Compute(assign grouping.Assignment, m *frame.Matrix) (*frame.Matrix, error) {
	common := make([]int, 0, len(m.Columns))
	for j, sample := range m.Columns {
		if _, ok := assign.Treatments[sample]; !ok {
			continue
		}
		if _, ok := assign.Conditions[sample]; !ok {
			continue
		}
		common = append(common, j)
	}
	if len(common) <= 1 {
		return nil, fmt.Errorf("%w: %d shared samples", ErrInsufficientOverlap, len(common))
	}

	groups := make(map[string][]int)
	for _, j := range common {
		key := assign.Conditions[m.Columns[j]].Encode()
		groups[key] = append(groups[key], j)
	}
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var frames []*frame.Matrix
	for _, key := range keys {
		diff := groupDifferential(key, groups[key], assign, m)
		if diff != nil {
			frames = append(frames, diff)
		}
	}

	switch len(frames) {
	case 0:
		return nil, fmt.Errorf("%w: %d condition groups", ErrNoQualifyingGroup, len(keys))
	case 1:
		return frames[0], nil
	default:
		return frame.JoinColumns(frames...), nil
	}
}

// groupDifferential computes one condition group's columns, or nil when the
// group lacks a Control label or a second label.
func groupDifferential(condition string, cols []int, assign grouping.Assignment, m *frame.Matrix) *frame.Matrix {
	labels := make([]string, len(cols))
	counts := make(map[string]int)
	for i, j := range cols {
		labels[i] = assign.Treatments[m.Columns[j]].Encode()
		counts[labels[i]]++
	}
	controls := counts[grouping.ControlLabel]
	if len(counts) < 2 || controls == 0 {
		return nil
	}

	medians := m.SelectColumns(cols).GroupMedian(labels)
	control := slices.Index(medians.Columns, grouping.ControlLabel)

	keep := make([]int, 0, len(medians.Columns)-1)
	names := make([]string, 0, len(medians.Columns)-1)
	for g, label := range medians.Columns {
		if g == control {
			continue
		}
		keep = append(keep, g)
		names = append(names, Label{
			Treatment: label,
			Condition: condition,
			Count:     min(counts[label], controls),
		}.String())
	}

	out := medians.SelectColumns(keep)
	out.Columns = names
	for i, row := range out.Values {
		base := medians.Values[i][control]
		for g := range row {
			row[g] -= base
		}
	}
	return out
}
