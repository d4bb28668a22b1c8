// Package config loads, normalizes, and validates playsync configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the LISTENBRAINZ_TOKEN environment fallback. CLI
// flags are applied on top of the loaded values by the command layer.
package config
