// Package pipeline defines the canonical processing stage vocabulary for gist jobs.
//
// A job moves through a fixed forward-only sequence:
//
//	pending → ingesting → transcribing → understanding → grouping → ranking → complete
//
// [StageFailed] is reachable from any non-terminal stage. No transitions
// leave [StageComplete] or [StageFailed]. The backend may introduce stage
// tokens this client does not know; those are displayable but carry no
// position in the canonical ordering.
package pipeline

import "strings"

// Stage is one discrete named phase of the backend pipeline.
type Stage string

const (
	StagePending       Stage = "pending"
	StageIngesting     Stage = "ingesting"
	StageTranscribing  Stage = "transcribing"
	StageUnderstanding Stage = "understanding"
	StageGrouping      Stage = "grouping"
	StageRanking       Stage = "ranking"
	StageComplete      Stage = "complete"
	StageFailed        Stage = "failed"
)

// canonicalRank positions each known stage in the forward ordering.
// Failed is terminal but deliberately absent: it has no forward position.
var canonicalRank = map[Stage]int{
	StagePending:       0,
	StageIngesting:     1,
	StageTranscribing:  2,
	StageUnderstanding: 3,
	StageGrouping:      4,
	StageRanking:       5,
	StageComplete:      6,
}

// Rank returns the stage's position in the canonical ordering.
// The second return value is false for failed and for unrecognized tokens.
func (s Stage) Rank() (int, bool) {
	r, ok := canonicalRank[s]
	return r, ok
}

// Known reports whether s is part of the canonical vocabulary, including failed.
func (s Stage) Known() bool {
	if s == StageFailed {
		return true
	}
	_, ok := canonicalRank[s]
	return ok
}

// Terminal reports whether no further transitions are permitted from s.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// Processing holds exactly when the stage is non-empty and non-terminal.
func (s Stage) Processing() bool {
	return s != "" && !s.Terminal()
}

// Label returns a human-readable form of the stage. Unrecognized tokens
// are title-cased verbatim so the backend can introduce stages without
// breaking display.
func (s Stage) Label() string {
	switch s {
	case StagePending:
		return "Pending"
	case StageIngesting:
		return "Downloading video"
	case StageTranscribing:
		return "Transcribing audio"
	case StageUnderstanding:
		return "Understanding content"
	case StageGrouping:
		return "Grouping ideas"
	case StageRanking:
		return "Ranking ideas"
	case StageComplete:
		return "Complete"
	case StageFailed:
		return "Failed"
	case "":
		return ""
	default:
		token := string(s)
		return strings.ToUpper(token[:1]) + token[1:]
	}
}

// Advances reports whether moving from one stage to another is a legal
// forward transition. Failed is reachable from any non-terminal stage;
// nothing leaves a terminal stage; between ranked stages only equal or
// forward moves are legal. A move involving an unranked token is never
// an advance (callers may still display the token).
func Advances(from, to Stage) bool {
	if from.Terminal() {
		return false
	}
	if to == StageFailed {
		return true
	}

	toRank, ok := to.Rank()
	if !ok {
		return false
	}

	fromRank, ok := from.Rank()
	if !ok {
		// From empty or an unranked token any ranked stage is reachable.
		return true
	}

	return toRank >= fromRank
}
