// Package config resolves the binpacker service settings: the HTTP port and
// timeouts, the default bin capacity and packing strategy applied to pack
// requests that omit them, the per-request item limit, rate limiting and the
// metrics endpoint. Values come from CLI flags, a YAML file and environment
// variables with precedence CLI flags > YAML config > Environment variables >
// Defaults.
package config
