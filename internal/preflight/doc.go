// Package preflight runs startup environment checks before the watcher
// begins processing files: directory permissions, free disk space, and
// reachability of the optional notification endpoint.
package preflight
