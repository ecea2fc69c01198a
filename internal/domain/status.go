package domain

// SongStatus is the stage of a card's optional song pipeline.
type SongStatus string

const (
	SongStatusPending          SongStatus = "pending"
	SongStatusGeneratingLyrics SongStatus = "generating_lyrics"
	SongStatusGeneratingSong   SongStatus = "generating_song"
	SongStatusComplete         SongStatus = "complete"
	SongStatusFailed           SongStatus = "failed"
)

// songTransitions lists the legal next stages for each stage.
//
// generating_lyrics returns to pending once lyrics are stored (ready for the
// song step). complete is re-enterable only for cards created complete in
// demo deployments, which have neither lyrics nor a song yet. failed may be
// retried by re-invoking a generation step.
var songTransitions = map[SongStatus][]SongStatus{
	SongStatusPending:          {SongStatusGeneratingLyrics, SongStatusGeneratingSong, SongStatusComplete, SongStatusFailed},
	SongStatusGeneratingLyrics: {SongStatusPending, SongStatusFailed},
	SongStatusGeneratingSong:   {SongStatusComplete, SongStatusFailed},
	SongStatusComplete:         {SongStatusGeneratingLyrics, SongStatusGeneratingSong},
	SongStatusFailed:           {SongStatusPending, SongStatusGeneratingLyrics, SongStatusGeneratingSong},
}

// Valid reports whether s is one of the defined stages.
func (s SongStatus) Valid() bool {
	_, ok := songTransitions[s]
	return ok
}

// InProgress reports whether s is a non-terminal generation stage.
func (s SongStatus) InProgress() bool {
	return s == SongStatusGeneratingLyrics || s == SongStatusGeneratingSong
}

// CanTransitionTo reports whether moving from s to next is legal. Staying in
// the same stage is always allowed.
func (s SongStatus) CanTransitionTo(next SongStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, to := range songTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// TransitionSources returns every stage from which next may be entered,
// excluding next itself. Stores use it to build compare-and-swap guards.
func TransitionSources(next SongStatus) []SongStatus {
	var out []SongStatus
	for _, from := range []SongStatus{
		SongStatusPending,
		SongStatusGeneratingLyrics,
		SongStatusGeneratingSong,
		SongStatusComplete,
		SongStatusFailed,
	} {
		if from != next && from.CanTransitionTo(next) {
			out = append(out, from)
		}
	}
	return out
}

// JobStatus is the normalized state of a provider-side song generation job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusComplete   JobStatus = "complete"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further polling can change the job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

// EmailStatus is the outcome of a card email send attempt.
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// Action names a rate-limited operation.
type Action string

const (
	ActionCreateCard     Action = "create_card"
	ActionGenerateLyrics Action = "generate_lyrics"
	ActionGenerateSong   Action = "generate_song"
	ActionSendEmail      Action = "send_email"
)
