// Package preflight checks that the directories archivemon touches are usable
// before the monitor starts watching.
//
// The input directory must be readable; the output, work and state
// directories must also be writable. The root command refuses to start when a
// check fails, and `archivemon deps` prints the same results.
package preflight
