// Package notifications delivers optional push notifications through ntfy
// for merge completions, file failures, and run summaries. When no topic is
// configured the service silently drops every event.
package notifications
