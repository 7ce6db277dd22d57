package journal

import "time"

// Outcome classifies how an archive event ended.
type Outcome string

const (
	// OutcomeProcessed means the archive was folded into the sums and published.
	OutcomeProcessed Outcome = "processed"
	// OutcomeFailed means the step stopped early; the sums may not include the archive.
	OutcomeFailed Outcome = "failed"
)

// Entry is one journal row.
type Entry struct {
	ID           int64
	SessionID    string
	Seq          int64
	ArchivePath  string
	Seeded       bool
	Outcome      Outcome
	ToolFailures int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns how long processing took.
func (e Entry) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}
