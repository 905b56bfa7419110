package feed

import (
	"sync"

	"forum/pkg/post"
)

// Cache holds the last fetched post set of a view.
type Cache struct {
	mu     sync.RWMutex
	posts  []*post.Post
	loaded bool
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Load(posts []*post.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = posts
	c.loaded = true
}

// Posts returns a copy of the cached slice in fetch order.
func (c *Cache) Posts() []*post.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*post.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// UpdateTally patches the score of a cached post after a vote.
func (c *Cache) UpdateTally(id post.PostId, tally int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.posts {
		if p.Id == id {
			p.Score = tally
			return true
		}
	}
	return false
}
