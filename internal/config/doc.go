// Package config loads, normalizes, and validates cheatdb configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VK_TOKEN, CHEATDB_API_TOKEN, and CHEATDB_NTFY_TOPIC. The Config type centralizes every knob the
// daemon and CLI need: where the identity database lives, how the directory
// lookup reaches the VK API, which profile hosts the classifier recognizes,
// and how bulk import documents mark their partial-trust section.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
