// Package grouping decides how samples are paired for a treatment-vs-control
// comparison.
//
// A Scheme names the metadata fields that define a condition instance and the
// fields that decorate a treatment label. Schemes enumerates them in priority
// order; Scheme.Assign turns a sanitized table into one ConditionKey and one
// TreatmentKey per sample. Keys are typed values with explicit encode and
// decode functions; the encoded forms join field:value pairs with "&" (and
// decorator pairs with "_"), which is safe because sanitization removed "&" and
// "@" from every value.
package grouping
