// Package compile drives an engine against a world and turns the outcome
// into rendered output plus a diagnostics record.
//
// Every SVG or PDF call is one full run: compile, classify the diagnostics
// into the sink, render. Runs on one Pipeline are serialized and the sink
// only ever reflects the latest run.
package compile
