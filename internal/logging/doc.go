// Package logging assembles structured slog loggers and formatting helpers used
// across archivemon.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, stamps every record with the run's session id, and exposes
// helpers that keep WARN and ERROR lines shaped the same way (event type,
// hint, impact). The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
