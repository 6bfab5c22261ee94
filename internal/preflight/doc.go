// Package preflight provides readiness checks for the filesystem paths an
// assembly run touches.
//
// The add command runs ForAssembly before taking the archive lock so that a
// read-only project directory or an unreadable animation is reported without
// leaving a temporary archive behind. The config validate command uses
// CheckDirectoryAccess to report on the state directory.
package preflight
