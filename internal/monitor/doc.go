// Package monitor orchestrates the watch-directory pipeline. One pass scans
// for stable files, then for each file in turn validates it, merges it into
// the master dataset and its metadata summary under the advisory lock,
// archives the source, and journals the outcome. Per-file failures are
// isolated; watch mode repeats passes on filesystem events and a timer.
package monitor
