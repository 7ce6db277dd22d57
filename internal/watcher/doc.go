// Package watcher turns file-creation events in one directory into serial
// handler calls.
//
// A Watcher observes a single directory non-recursively with fsnotify. Create
// events whose path passes the match filter are queued in arrival order and
// handed to the handler one at a time on the goroutine that called Run. An
// error or panic from the handler is logged and the loop moves on to the next
// queued path. When the Run context is cancelled the in-flight handler call is
// allowed to finish; queued paths that have not started are dropped.
package watcher
