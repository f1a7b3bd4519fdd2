// Package cli implements command-line argument parsing for cmd/phlex,
// following the teacher's hand-rolled flag.FlagSet style rather than an
// argument-parsing framework, per SPEC_FULL.md's domain-stack note that
// CLI wiring stays plain.
package cli
