// Package journal records one row per archive the monitor handled in a
// SQLite database under the state directory.
//
// The journal is diagnostic history for operators (`archivemon history`). It
// is write-only from the monitor's point of view: nothing in it is read back
// to rebuild the running sums or the first-file state after a restart.
package journal
