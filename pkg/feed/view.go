package feed

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/post"
	"forum/pkg/voting"
)

type EventType string

const (
	EventEnter     EventType = "enter"
	EventKeyword   EventType = "keyword"
	EventCommunity EventType = "community"
	EventTag       EventType = "tag"
	EventSort      EventType = "sort"
	EventVote      EventType = "vote"

	// eventSearch is posted by the debouncer once typing settles.
	eventSearch EventType = "search"
)

// Event is one user interaction with a view.
type Event struct {
	Type   EventType   `json:"type"`
	View   ViewMode    `json:"view,omitempty"`
	Text   string      `json:"text,omitempty"`
	Sort   SortMode    `json:"sort,omitempty"`
	PostId post.PostId `json:"postId,omitempty"`
	Vote   string      `json:"vote,omitempty"`
}

// Update is what a view pushes to its client.
type Update struct {
	Context FeedContext   `json:"context"`
	Result  *Result       `json:"result,omitempty"`
	Vote    *post.Outcome `json:"vote,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type Voter interface {
	Apply(ctx context.Context, postId post.PostId, userId string, vote voting.Direction) (post.Outcome, error)
}

// View owns one client's FeedContext and Cache. All of its state is
// touched only from the Run goroutine.
type View struct {
	pipeline *Pipeline
	voter    Voter
	debounce *Debouncer
	userId   string

	fc    FeedContext
	cache *Cache

	events  chan Event
	updates chan Update
	done    chan struct{}
}

func NewView(pipeline *Pipeline, voter Voter, clock clockwork.Clock, searchDelay time.Duration, userId string) *View {
	return &View{
		pipeline: pipeline,
		voter:    voter,
		debounce: NewDebouncer(clock, searchDelay),
		userId:   userId,
		fc:       NewFeedContext(Home, userId),
		cache:    NewCache(),
		events:   make(chan Event, 16),
		updates:  make(chan Update, 16),
		done:     make(chan struct{}),
	}
}

// Send queues e and reports false once the view has stopped.
func (v *View) Send(e Event) bool {
	select {
	case <-v.done:
		return false
	default:
	}
	select {
	case v.events <- e:
		return true
	case <-v.done:
		return false
	}
}

// Updates is closed when Run returns.
func (v *View) Updates() <-chan Update {
	return v.updates
}

func (v *View) Run(ctx context.Context) {
	defer close(v.updates)
	defer close(v.done)
	defer v.debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-v.events:
			u, ok := v.handle(ctx, e)
			if !ok {
				continue
			}
			select {
			case v.updates <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (v *View) handle(ctx context.Context, e Event) (Update, bool) {
	switch e.Type {
	case EventEnter:
		v.debounce.Stop()
		v.fc = NewFeedContext(e.View, v.userId)
		var status string
		if err := v.pipeline.Enter(ctx, v.fc, v.cache); err != nil {
			status, _ = common.StatusOf(err)
		}
		u := v.render(ctx)
		if status != "" {
			u.Result.Status = status
		}
		return u, true

	case EventKeyword:
		v.fc.Keyword = e.Text
		v.debounce.Call(func() {
			v.Send(Event{Type: eventSearch})
		})
		return Update{}, false

	case eventSearch:
		return v.render(ctx), true

	case EventCommunity:
		v.fc.Community = e.Text
		return v.render(ctx), true

	case EventTag:
		v.fc.Tag = e.Text
		return v.render(ctx), true

	case EventSort:
		v.fc.Sort = e.Sort
		return v.render(ctx), true

	case EventVote:
		return v.vote(ctx, e), true
	}

	logger.Log(ctx).Warnf("feed: unknown view event %q", e.Type)
	return Update{Context: v.fc, Error: "unknown event"}, true
}

func (v *View) render(ctx context.Context) Update {
	res := v.pipeline.Apply(ctx, v.fc, v.cache)
	return Update{Context: v.fc, Result: &res}
}

// vote leaves the cache untouched unless the store accepted it.
func (v *View) vote(ctx context.Context, e Event) Update {
	dir, err := voting.ParseDirection(e.Vote)
	if err != nil {
		return Update{Context: v.fc, Error: "unknown vote direction"}
	}

	out, err := v.voter.Apply(ctx, e.PostId, v.userId, dir)
	if err != nil {
		msg, _ := common.StatusOf(err)
		return Update{Context: v.fc, Error: msg}
	}

	v.cache.UpdateTally(out.PostId, out.Tally)
	return Update{Context: v.fc, Vote: &out}
}
