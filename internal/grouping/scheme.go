package grouping

import (
	"fmt"
	"slices"
	"strings"

	"curadiff/internal/frame"
	"curadiff/internal/metadata"
)

// Scheme is one candidate way of grouping samples: the fields whose values
// define a condition instance and the fields appended to treatment labels.
type Scheme struct {
	Index           int
	ConditionFields []string
	DecoratorFields []string
}

func (s Scheme) String() string {
	return fmt.Sprintf("#%d condition=[%s] decorators=[%s]",
		s.Index, strings.Join(s.ConditionFields, ", "), strings.Join(s.DecoratorFields, ", "))
}

// Candidates lists the table's fields other than Treatment, Condition, and Sub
// Condition, in table order.
func Candidates(md *frame.Metadata) []string {
	var out []string
	for _, field := range md.Fields {
		switch field {
		case metadata.FieldTreatment, metadata.FieldCondition, metadata.FieldSubCondition:
			continue
		}
		out = append(out, field)
	}
	return out
}

// Schemes enumerates grouping schemes in priority order: one per candidate
// field v, grouping on Condition, Sub Condition and v with the other candidates
// as decorators; then a final scheme grouping on Condition and Sub Condition.
//
// The final scheme's decorators are the candidates minus Condition. Condition
// is never a candidate, so this is every candidate.
func Schemes(md *frame.Metadata) []Scheme {
	candidates := Candidates(md)
	schemes := make([]Scheme, 0, len(candidates)+1)
	for _, v := range candidates {
		schemes = append(schemes, Scheme{
			Index:           len(schemes),
			ConditionFields: present(md, metadata.FieldCondition, metadata.FieldSubCondition, v),
			DecoratorFields: without(candidates, v),
		})
	}
	schemes = append(schemes, Scheme{
		Index:           len(schemes),
		ConditionFields: present(md, metadata.FieldCondition, metadata.FieldSubCondition),
		DecoratorFields: without(candidates, metadata.FieldCondition),
	})
	return schemes
}

// Assignment holds the keys a scheme assigns to each sample. Samples with an
// empty value in any condition field have no condition key; every sample has a
// treatment key.
type Assignment struct {
	Conditions map[string]ConditionKey
	Treatments map[string]TreatmentKey
}

// Assign builds condition and treatment keys for every sample of md.
func (s Scheme) Assign(md *frame.Metadata) Assignment {
	condFields := present(md, s.ConditionFields...)
	condIdx := indexes(md, condFields)
	decorFields := present(md, s.DecoratorFields...)
	decorIdx := indexes(md, decorFields)
	treatment := md.FieldIndex(metadata.FieldTreatment)

	out := Assignment{
		Conditions: make(map[string]ConditionKey, len(md.Samples)),
		Treatments: make(map[string]TreatmentKey, len(md.Samples)),
	}
	for row, sample := range md.Samples {
		values := md.Values[row]

		decorators := make([]Pair, len(decorIdx))
		for i, idx := range decorIdx {
			decorators[i] = Pair{Field: decorFields[i], Value: values[idx]}
		}
		label := ""
		if treatment >= 0 {
			label = values[treatment]
		}
		out.Treatments[sample] = NewTreatmentKey(label, decorators)

		key := ConditionKey{Pairs: make([]Pair, 0, len(condIdx))}
		complete := true
		for i, idx := range condIdx {
			if strings.TrimSpace(values[idx]) == "" {
				complete = false
				break
			}
			key.Pairs = append(key.Pairs, Pair{Field: condFields[i], Value: values[idx]})
		}
		if complete {
			out.Conditions[sample] = key
		}
	}
	return out
}

func present(md *frame.Metadata, fields ...string) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if md.HasField(field) && !slices.Contains(out, field) {
			out = append(out, field)
		}
	}
	return out
}

func indexes(md *frame.Metadata, fields []string) []int {
	out := make([]int, len(fields))
	for i, field := range fields {
		out[i] = md.FieldIndex(field)
	}
	return out
}

func without(fields []string, drop string) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field != drop {
			out = append(out, field)
		}
	}
	return out
}
