// Package config loads, normalizes, and validates the melodex TOML
// configuration.
//
// Configuration is resolved from an explicit path, ~/.config/melodex/config.toml,
// or ./melodex.toml, in that order. The resulting Config is immutable after
// Load returns; pipelines receive it by reference and never mutate it.
package config
