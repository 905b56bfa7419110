package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"forum/pkg/logger"
	"forum/pkg/post"
)

const staleStatus = "Couldn't refresh posts, showing the last loaded ones."

type Store interface {
	FetchAll(ctx context.Context) ([]*post.Post, error)
	FetchAllByScore(ctx context.Context) ([]*post.Post, error)
	FetchByMembership(ctx context.Context, userId string) ([]*post.Post, error)
}

type Result struct {
	Posts        []*post.Post `json:"posts"`
	Empty        bool         `json:"empty"`
	EmptyMessage string       `json:"emptyMessage,omitempty"`
	// Stale is set when a re-fetch failed and Posts is the previous result.
	Stale  bool   `json:"stale"`
	Status string `json:"status,omitempty"`
}

type Pipeline struct {
	store     Store
	onRefetch func(err error)
}

func NewPipeline(store Store) *Pipeline {
	return &Pipeline{store: store}
}

// OnRefetch registers a hook called after every Latest/Oldest fetch.
func (p *Pipeline) OnRefetch(fn func(err error)) {
	p.onRefetch = fn
}

// Enter fills the cache for a freshly entered view. On failure the cache
// keeps whatever it held.
func (p *Pipeline) Enter(ctx context.Context, fc FeedContext, cache *Cache) error {
	var (
		posts []*post.Post
		err   error
	)
	switch {
	case fc.View == Explore:
		posts, err = p.store.FetchAllByScore(ctx)
	case strings.TrimSpace(fc.UserId) == "":
		posts, err = p.store.FetchAll(ctx)
	default:
		posts, err = p.store.FetchByMembership(ctx, fc.UserId)
	}
	if err != nil {
		logger.Log(ctx).Errorf("feed: can't load %s posts: %v", fc.View, err)
		return fmt.Errorf("feed/pipeline: enter %s: %w", fc.View, err)
	}
	cache.Load(posts)
	return nil
}

// Apply filters and orders the posts for fc.
func (p *Pipeline) Apply(ctx context.Context, fc FeedContext, cache *Cache) Result {
	if fc.View == Explore && fc.Sort.Refetches() {
		return p.refetch(ctx, fc, cache)
	}

	posts := Filter(cache.Posts(), fc)
	switch {
	case fc.View == Explore && fc.Sort == LeastLiked:
		SortByTally(posts, true)
	case fc.View == Explore:
		// MostLiked, and no selection at all.
		SortByTally(posts, false)
	case fc.keyword() != "":
		SortByTally(posts, false)
	}
	return result(fc, posts)
}

// refetch ranks a fresh store read, bypassing the cached set. If the read
// fails the cached set is filtered for fc and shown in cache order.
func (p *Pipeline) refetch(ctx context.Context, fc FeedContext, cache *Cache) Result {
	fresh, err := p.store.FetchAll(ctx)
	if p.onRefetch != nil {
		p.onRefetch(err)
	}
	if err != nil {
		logger.Log(ctx).Warnf("feed: re-fetch for %s sort failed, showing cached posts: %v", fc.Sort, err)
		res := result(fc, Filter(cache.Posts(), fc))
		res.Stale = true
		res.Status = staleStatus
		return res
	}
	cache.Load(fresh)

	posts := Filter(fresh, fc)
	if fc.Sort == Oldest {
		reverse(posts)
	}
	return result(fc, posts)
}

// Filter keeps posts matching the keyword and, in Explore, the community
// and tag filters. Order is preserved.
func Filter(posts []*post.Post, fc FeedContext) []*post.Post {
	kw := fc.keyword()
	byCommunity := fc.View == Explore && !isAll(fc.Community, post.AllCommunities)
	byTag := fc.View == Explore && !isAll(fc.Tag, post.AllTags)

	out := make([]*post.Post, 0, len(posts))
	for _, p := range posts {
		if kw != "" &&
			!strings.Contains(strings.ToLower(p.Title), kw) &&
			!strings.Contains(strings.ToLower(p.Content), kw) {
			continue
		}
		if byCommunity && p.Community != strings.TrimSpace(fc.Community) {
			continue
		}
		// A post without a tag never matches a tag filter.
		if byTag && (p.Tag == "" || p.Tag != strings.TrimSpace(fc.Tag)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortByTally is stable: equal tallies keep fetch order.
func SortByTally(posts []*post.Post, ascending bool) {
	sort.SliceStable(posts, func(i, j int) bool {
		if ascending {
			return posts[i].Score < posts[j].Score
		}
		return posts[i].Score > posts[j].Score
	})
}

func reverse(posts []*post.Post) {
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
}

// snapshot copies posts so results don't share memory with the cache.
func snapshot(posts []*post.Post) []*post.Post {
	out := make([]*post.Post, len(posts))
	for i, p := range posts {
		cp := *p
		out[i] = &cp
	}
	return out
}

func result(fc FeedContext, posts []*post.Post) Result {
	res := Result{Posts: snapshot(posts)}
	if len(posts) == 0 {
		res.Empty = true
		res.EmptyMessage = EmptyMessage(fc.Keyword)
	}
	return res
}

// EmptyMessage tells "nothing matched" apart from "nothing exists".
func EmptyMessage(keyword string) string {
	if kw := strings.TrimSpace(keyword); kw != "" {
		return fmt.Sprintf("No posts match %q.", kw)
	}
	return "No posts available."
}
