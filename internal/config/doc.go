// Package config holds the immutable run configuration for lockdir.
//
// Configuration is resolved once at startup: built-in defaults, then an
// optional TOML file on top. The resulting Config value is passed into
// each component at construction and never mutated, replacing the
// global mutable configuration of earlier designs.
//
// The engine's own state files (keystore, log, manifest) are always
// appended to the exclusion prefixes so a walk cannot encrypt them.
package config
