package differential

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	conditionMark = "@"
	replicateMark = " rep "
)

// ErrMalformedLabel is returned when a column label does not have the
// "<treatment>@<condition> rep <n>" shape.
var ErrMalformedLabel = errors.New("malformed column label")

// Label names one differential column.
type Label struct {
	Treatment string
	Condition string
	Count     int
}

// String renders "<treatment>@<condition> rep <count>".
func (l Label) String() string {
	return l.Comparison() + replicateMark + strconv.Itoa(l.Count)
}

// Comparison renders the label without its replicate count.
func (l Label) Comparison() string {
	return l.Treatment + conditionMark + l.Condition
}

// ParseLabel splits a rendered label back into its parts.
func ParseLabel(s string) (Label, error) {
	cut := strings.LastIndex(s, replicateMark)
	if cut < 0 {
		return Label{}, fmt.Errorf("%w: %q lacks %q", ErrMalformedLabel, s, strings.TrimSpace(replicateMark))
	}
	count, err := strconv.Atoi(s[cut+len(replicateMark):])
	if err != nil {
		return Label{}, fmt.Errorf("%w: %q has non-numeric count", ErrMalformedLabel, s)
	}
	treatment, condition, ok := strings.Cut(s[:cut], conditionMark)
	if !ok {
		return Label{}, fmt.Errorf("%w: %q lacks %q", ErrMalformedLabel, s, conditionMark)
	}
	return Label{Treatment: treatment, Condition: condition, Count: count}, nil
}

// Descriptor returns the leading treatment descriptor of a label: everything
// before " rep ", then before "@", then before "&".
func Descriptor(s string) string {
	if i := strings.Index(s, replicateMark); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, conditionMark); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "&"); i >= 0 {
		s = s[:i]
	}
	return s
}
