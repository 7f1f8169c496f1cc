// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It wires
// the built-in layer definitions into a registry and translates subcommands
// into stack operations.
package cli
