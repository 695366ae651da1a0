// Package main hosts the csvwatch CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot scan passes, the continuous
// watch loop, master dataset status, processing history, and configuration
// scaffolding. It centralizes configuration resolution and logging setup so
// subcommands can focus on user experience instead of wiring.
package main
