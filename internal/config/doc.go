// Package config loads, normalizes, and validates liner configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LINER_TEXTGEN_API_KEY. The Config type centralizes every knob the daemon
// and CLI need, including the operator-tunable publish parameters (batch
// size, run interval, time budget) that are read at run start.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
