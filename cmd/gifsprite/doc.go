// Package main hosts the gifsprite CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// off to the internal packages: add runs the sprite assembler against a
// project archive, inspect reads a project's targets, history lists journaled
// runs, and the config and template commands scaffold files.
//
// Keep this package lean: new behavior belongs in internal packages first,
// surfaced here through a command or flag.
package main
