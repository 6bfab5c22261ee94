// Package history keeps a SQLite journal of completed assembly runs.
//
// Each successful `gifsprite add` records one row: the run id that also tags
// the run's log lines, the archive and animation paths, the sprite name,
// anchor, frame count, and how many new assets were written. The journal is
// informational; the project archive never depends on it.
package history
