// Package monitor implements the lifecycle controller that ties the directory
// watcher to an archive processor.
//
// A Monitor moves through Idle, Watching, StopRequested and Stopped. It holds
// an exclusive flock on the state directory while watching so two monitors
// never fold archives into the same running sums. Cancelling the Run context
// requests a stop; Run returns once the watcher goroutine has joined, which
// includes letting an in-flight archive finish.
package monitor
