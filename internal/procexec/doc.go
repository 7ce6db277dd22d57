// Package procexec runs external command-line tools synchronously and reports
// their outcome as a Result rather than a bare error.
//
// A non-zero exit is logged together with the tool's stderr; whether the
// failure stops the caller is the caller's decision (Result.Err). Commands are
// never interrupted once started: cancelling the context passed to Run does
// not kill an in-flight tool, and no timeout is applied. Tools run in their
// own process group, so a Ctrl-C on archivemon's terminal is seen only by
// archivemon.
package procexec
