// Package workload models the concrete items packed by the CLI and the HTTP
// service, and provides helpers to parse, load and randomly generate them.
package workload
