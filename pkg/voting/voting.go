package voting

import "fmt"

type (
	// VotingScore is the stored vote of one user on one post.
	VotingScore int

	// Direction is a vote intent. Only ScoreUp and ScoreDown are valid intents.
	Direction = VotingScore

	Vote struct {
		UserId string      `json:"user"`
		Score  VotingScore `json:"vote"`
	}
)

const (
	ScoreUp      VotingScore = 1
	ScoreDiscard VotingScore = 0
	ScoreDown    VotingScore = -1
)

func (s VotingScore) String() string {
	switch s {
	case ScoreUp:
		return "up"
	case ScoreDown:
		return "down"
	case ScoreDiscard:
		return "none"
	}
	return fmt.Sprintf("VotingScore(%d)", int(s))
}

// Valid reports whether s can be cast as a vote.
func (s VotingScore) Valid() bool {
	return s == ScoreUp || s == ScoreDown
}

// ParseDirection accepts "up" and "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return ScoreUp, nil
	case "down":
		return ScoreDown, nil
	}
	return ScoreDiscard, fmt.Errorf("voting: unknown direction %q", s)
}

// Transition returns the state after casting vote on from and the tally delta.
// Casting the current direction again clears it; casting the opposite one
// replaces it in a single step.
func Transition(from VotingScore, vote Direction) (VotingScore, int) {
	if from == vote {
		return ScoreDiscard, -int(vote)
	}
	return vote, int(vote) - int(from)
}
