// Package daemon hosts the melodex HTTP service: it owns the single-instance
// lock, wires configuration into the recognition and catalog pipelines, and
// translates pipeline outcomes into API responses.
package daemon
