package domain

// ProgressionRecord holds the per-(player, mode) progression counters.
// Level, Accuracy, Performance and RankIndex are derived fields: they are
// recomputed from the stored inputs whenever those change, never patched
// incrementally.
type ProgressionRecord struct {
	PlayerID int64
	Mode     Mode
	Country  string

	RankedScore        int64
	TotalScore         int64
	PlayCount          int64
	TotalSecondsPlayed int64

	// AccuracyTotal is the accuracy numerator (sum of per-play accuracies),
	// AccuracyCount the denominator (number of counted plays).
	AccuracyTotal float64
	AccuracyCount int64

	Count300  int64
	Count100  int64
	Count50   int64
	CountMiss int64

	ReplaysWatched int64

	Level       int
	Accuracy    float64
	Performance float64
	RankIndex   int64
}

// Score is a single score submission as handed to the progression engine.
type Score struct {
	PlayerID int64
	Mode     Mode
	Passed   bool

	TotalScoreDelta  int64
	RankedScoreDelta int64

	// Accuracy of this play in [0, 1]; contributes to the accuracy
	// numerator only when the play passed.
	Accuracy float64

	// PlayTime is the real seconds played, when the client reported it.
	// FullPlayTime is the full length of the play.
	PlayTime     *int64
	FullPlayTime int64

	// Performance is the rating awarded to this play, when one was
	// computed. Only passed plays with a rating enter the weighted total.
	Performance *float64

	Count300  int64
	Count100  int64
	Count50   int64
	CountMiss int64
}

// SecondsPlayed returns the play duration to add to the totals: the real
// play time when present, the full play time otherwise.
func (s *Score) SecondsPlayed() int64 {
	if s.PlayTime != nil {
		return *s.PlayTime
	}
	return s.FullPlayTime
}
