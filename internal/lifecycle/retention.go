package lifecycle

import "time"

// Default retention policy: items are kept for six months, and become
// to-be-discarded two weeks before that deadline.
const (
	DefaultRetentionMonths = 6
	DefaultGracePeriod     = 14 * 24 * time.Hour
)

// Retention describes how long unclaimed items are kept.
type Retention struct {
	Months int
	Grace  time.Duration
}

// DefaultRetention returns the standard six-month policy.
func DefaultRetention() Retention {
	return Retention{Months: DefaultRetentionMonths, Grace: DefaultGracePeriod}
}

// Deadline returns the discard deadline for an item found at foundAt.
func (r Retention) Deadline(foundAt time.Time) time.Time {
	return foundAt.AddDate(0, r.Months, 0)
}

// MarkingDue reports whether a lost item found at foundAt is due for the
// to-be-discarded transition at now, i.e. whether the grace period before
// its deadline has started.
func (r Retention) MarkingDue(foundAt, now time.Time) bool {
	return !r.Deadline(foundAt).Add(-r.Grace).After(now)
}

// monthSlackDays covers the difference between month lengths when the
// month arithmetic is run backwards from now.
const monthSlackDays = 7

// MarkingCutoff returns a found_at bound that every item due at now is at
// or before. It is meant for coarse store queries; MarkingDue decides.
func (r Retention) MarkingCutoff(now time.Time) time.Time {
	return now.AddDate(0, -r.Months, monthSlackDays).Add(r.Grace)
}
