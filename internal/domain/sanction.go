package domain

import "time"

// SanctionKind classifies entries in the append-only sanction history.
type SanctionKind int

const (
	SanctionNote        SanctionKind = 0
	SanctionRestriction SanctionKind = 1
	SanctionSilence     SanctionKind = 2
)

// SanctionEvent is an append-only audit entry. Events are never mutated,
// with one exception: lifting a silence early zeroes the period of the most
// recent silence entry.
type SanctionEvent struct {
	ID       int64
	PlayerID int64
	Reason   string
	Kind     SanctionKind
	// Period is the silence duration in seconds. Zero for notes and
	// restrictions.
	Period    int64
	ActorID   int64
	Timestamp time.Time
}

// SilenceEnd computes the absolute end of the silence this event describes.
func (e *SanctionEvent) SilenceEnd() time.Time {
	return e.Timestamp.Add(time.Duration(e.Period) * time.Second)
}
