// Package config loads, normalizes, and validates archivemon configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// monitor and CLI need: the watched and published directories, the working
// directory that holds the running sums, external tool names, and logging.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical suffixes, and clear validation errors.
package config
