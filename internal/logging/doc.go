// Package logging assembles structured slog loggers and formatting helpers used
// across gifsprite.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so assembly code can tag log
// lines with the run identifier and archive path without threading loggers
// through every call. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every command emits
// data with the same shape.
package logging
