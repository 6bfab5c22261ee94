// Package config loads, normalizes, and validates gifsprite configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GIFSPRITE_TEMPLATE. The Config type centralizes the knobs the CLI and the
// sprite assembler need: where state and logs live, which costume template to
// use, the default rotation anchor, and whether runs are journaled.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
