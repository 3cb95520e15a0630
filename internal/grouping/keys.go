package grouping

import (
	"errors"
	"fmt"
	"strings"
)

// ControlLabel is the Treatment value of baseline samples.
const ControlLabel = "Control"

// Separators used by encoded keys.
const (
	PairSeparator      = "&"
	DecoratorSeparator = "_"
	FieldValueMark     = ":"
)

// ErrMalformedKey is returned when an encoded key cannot be decoded.
var ErrMalformedKey = errors.New("malformed key")

// Pair is one field:value component of a composite key.
type Pair struct {
	Field string
	Value string
}

// Encode renders the pair as "field:value".
func (p Pair) Encode() string {
	return p.Field + FieldValueMark + p.Value
}

// ConditionKey identifies one condition instance within a scheme.
type ConditionKey struct {
	Pairs []Pair
}

// Encode joins the pairs with "&".
func (k ConditionKey) Encode() string {
	parts := make([]string, len(k.Pairs))
	for i, p := range k.Pairs {
		parts[i] = p.Encode()
	}
	return strings.Join(parts, PairSeparator)
}

// Without returns a copy of k with the pair at position i removed. An out of
// range position returns an unchanged copy.
func (k ConditionKey) Without(i int) ConditionKey {
	out := ConditionKey{Pairs: make([]Pair, 0, len(k.Pairs))}
	for j, p := range k.Pairs {
		if j == i {
			continue
		}
		out.Pairs = append(out.Pairs, p)
	}
	return out
}

// DecodeConditionKey parses an encoded condition key. Each pair splits on its
// first ":", so values may themselves contain ":".
func DecodeConditionKey(encoded string) (ConditionKey, error) {
	if encoded == "" {
		return ConditionKey{}, fmt.Errorf("%w: empty condition key", ErrMalformedKey)
	}
	tokens := strings.Split(encoded, PairSeparator)
	key := ConditionKey{Pairs: make([]Pair, 0, len(tokens))}
	for _, token := range tokens {
		field, value, ok := strings.Cut(token, FieldValueMark)
		if !ok {
			return ConditionKey{}, fmt.Errorf("%w: pair %q lacks %q", ErrMalformedKey, token, FieldValueMark)
		}
		key.Pairs = append(key.Pairs, Pair{Field: field, Value: value})
	}
	return key, nil
}

// TreatmentKey is a sample's treatment label, optionally refined by decorator
// fields. Control keys always encode to the bare label so every control sample
// with the same Treatment pools together.
type TreatmentKey struct {
	Label   string
	Suffix  string
	Control bool
}

// NewTreatmentKey builds a key for a raw Treatment value and its decorators.
func NewTreatmentKey(label string, decorators []Pair) TreatmentKey {
	parts := make([]string, len(decorators))
	for i, p := range decorators {
		parts[i] = p.Encode()
	}
	return TreatmentKey{
		Label:   label,
		Suffix:  strings.Join(parts, DecoratorSeparator),
		Control: label == ControlLabel,
	}
}

// Encode renders the key. Decorated non-control keys are "label&suffix" with
// trailing "&" and surrounding whitespace trimmed.
func (k TreatmentKey) Encode() string {
	if k.Control || len(k.Suffix) == 0 {
		return k.Label
	}
	joined := k.Label + PairSeparator + k.Suffix
	return strings.TrimSpace(strings.TrimRight(joined, PairSeparator))
}

// DecodeTreatmentKey splits an encoded treatment key at its first "&".
func DecodeTreatmentKey(encoded string) TreatmentKey {
	label, suffix, _ := strings.Cut(encoded, PairSeparator)
	return TreatmentKey{
		Label:   label,
		Suffix:  suffix,
		Control: label == ControlLabel && suffix == "",
	}
}
