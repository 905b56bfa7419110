package post

import (
	"context"
	"fmt"
	"strings"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/voting"
)

type VoteStore interface {
	RecordUpvote(ctx context.Context, postId PostId, userId string) (bool, error)
	RecordDownvote(ctx context.Context, postId PostId, userId string) (bool, error)
	CurrentVote(ctx context.Context, postId PostId, userId string) (voting.VotingScore, error)
	VoteCount(ctx context.Context, postId PostId) (int, error)
}

// Outcome is the vote state of one user on one post as read back from the store.
type Outcome struct {
	PostId    PostId             `json:"postId"`
	Voted     bool               `json:"voted"`
	Direction voting.VotingScore `json:"direction"`
	Tally     int                `json:"tally"`
}

type Coordinator struct {
	store   VoteStore
	onApply func(vote voting.Direction, err error)
}

func NewCoordinator(store VoteStore) *Coordinator {
	return &Coordinator{store: store}
}

// OnApply registers a hook called after every Apply, used for metrics.
func (c *Coordinator) OnApply(fn func(vote voting.Direction, err error)) {
	c.onApply = fn
}

// Apply casts vote for userId on postId. Direction and tally are always read
// back from the store after the mutation, so concurrent votes of other users
// are reflected. On error the caller keeps whatever it displayed before.
func (c *Coordinator) Apply(ctx context.Context, postId PostId, userId string, vote voting.Direction) (Outcome, error) {
	out, err := c.apply(ctx, postId, userId, vote)
	if c.onApply != nil {
		c.onApply(vote, err)
	}
	return out, err
}

func (c *Coordinator) apply(ctx context.Context, postId PostId, userId string, vote voting.Direction) (Outcome, error) {
	if strings.TrimSpace(userId) == "" {
		return Outcome{}, common.Userf(common.ErrValidation, "log in to vote")
	}
	if !vote.Valid() {
		return Outcome{}, common.Userf(common.ErrValidation, "unknown vote direction")
	}

	var (
		added bool
		err   error
	)
	if vote == voting.ScoreUp {
		added, err = c.store.RecordUpvote(ctx, postId, userId)
	} else {
		added, err = c.store.RecordDownvote(ctx, postId, userId)
	}
	if err != nil {
		logger.Log(ctx).Errorf("voting: can't record %s vote on post %d: %v", vote, postId, err)
		return Outcome{}, fmt.Errorf("voting: record vote: %w", err)
	}

	direction := voting.ScoreDiscard
	if added {
		direction, err = c.store.CurrentVote(ctx, postId, userId)
		if err != nil {
			logger.Log(ctx).Errorf("voting: can't read vote on post %d: %v", postId, err)
			return Outcome{}, fmt.Errorf("voting: read vote: %w", err)
		}
	}

	tally, err := c.store.VoteCount(ctx, postId)
	if err != nil {
		logger.Log(ctx).Errorf("voting: can't count votes on post %d: %v", postId, err)
		return Outcome{}, fmt.Errorf("voting: count votes: %w", err)
	}

	return Outcome{
		PostId:    postId,
		Voted:     direction != voting.ScoreDiscard,
		Direction: direction,
		Tally:     tally,
	}, nil
}
