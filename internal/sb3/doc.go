// Package sb3 reads and rewrites Scratch 3 project archives.
//
// An archive is a zip file holding one project.json manifest plus binary
// assets named <md5hex>.<ext>. Open exposes the manifest and entry names;
// Begin starts a rewrite session that copies every existing entry except the
// manifest into a temporary sibling file, accepts new assets, and on Commit
// writes the manifest exactly once before atomically renaming the result over
// the original. Asset names are content addressed, so a name that is already
// present (copied or written earlier in the session) is skipped rather than
// duplicated.
//
// Archives written by append-only tools may contain several project.json
// entries; readers in this package always take the last one.
package sb3
