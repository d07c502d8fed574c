// Package clock answers date queries from a single captured timestamp.
//
// The first call to Now captures the wall clock; every later query on the
// same Provider reuses that snapshot, so one compilation, or many, sees a
// consistent "today" even when the real clock crosses midnight.
package clock
