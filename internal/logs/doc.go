// Package logs reads the gifsprite log file for `gifsprite logs`.
//
// Last reads the final N lines with bounded memory; Follow polls from an
// offset and hands new lines to a callback until its context ends.
package logs
