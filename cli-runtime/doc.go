// Package cliruntime groups the building blocks of the yzctl command line.
//
// It includes:
//   - handlers: kind independent get, create and delete operations
//   - printers: table, JSON, YAML and name output
//   - flags: pflag sets bound to config structs
//   - filter: CEL based --where filtering of listed objects
package cliruntime
