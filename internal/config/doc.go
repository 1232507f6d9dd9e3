// Package config loads, normalizes, and validates mireval configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// MIREVAL_OUTPUT_DIR and MIREVAL_LOG_LEVEL. Relative dataset paths inside a
// config file are resolved against the file's directory.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical family names, and clear validation errors.
package config
