// Package reading defines the normalised record produced by every
// collector: a measurement point, the minute it was taken and an ordered
// list of named values. A nil value is a field that could not be read and
// is serialised as JSON null.
package reading
