// Package diag implements the two-axis diagnostics taxonomy used by
// elementmap's save/restore and name-insertion paths: Fatal issues stop
// the operation and are returned as a Go error; Warning issues are
// collected and processing continues, so partially-loaded documents
// remain usable with degraded topology tracking.
//
// This is a narrowed form of a richer JSON-Schema-validator diagnostics
// package: no source spans, no related-location chains, no LSP or JSON
// wire rendering — those concerns have no analog in a line-oriented
// save stream consumed in-process.
package diag
