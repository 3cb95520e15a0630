package frame

// Count is one entry of a replicate count map: an output column label and the
// number of replicates folded into it.
type Count struct {
	Label string
	N     int
}

// CountMap lists replicate counts in output column order.
type CountMap []Count

// Lookup returns the count recorded for label.
func (c CountMap) Lookup(label string) (int, bool) {
	for _, entry := range c {
		if entry.Label == label {
			return entry.N, true
		}
	}
	return 0, false
}
