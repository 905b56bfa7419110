package reply

import (
	"time"
)

// NoParent marks a top-level reply.
const NoParent = -1

// Reply lives in a flat arena; Parent is an index into Thread.Replies.
type Reply struct {
	ID      string    `json:"id" bson:"id"`
	Parent  int       `json:"parent" bson:"parent"`
	Depth   int       `json:"depth" bson:"depth"`
	Author  string    `json:"author" bson:"author"`
	Body    string    `json:"body" bson:"body"`
	Created time.Time `json:"created" bson:"created"`
}

type Thread struct {
	PostID  int64   `json:"postId" bson:"_id"`
	Replies []Reply `json:"replies" bson:"replies"`
}

// Roots returns indices of top-level replies in insertion order.
func (t *Thread) Roots() []int {
	return t.Children(NoParent)
}

// Children returns indices of direct replies to i in insertion order.
func (t *Thread) Children(i int) []int {
	var out []int
	for j, r := range t.Replies {
		if r.Parent == i {
			out = append(out, j)
		}
	}
	return out
}

// Walk visits replies depth first, parents before their children.
func (t *Thread) Walk(fn func(i int, r Reply)) {
	var visit func(i int)
	visit = func(i int) {
		fn(i, t.Replies[i])
		for _, c := range t.Children(i) {
			visit(c)
		}
	}
	for _, r := range t.Roots() {
		visit(r)
	}
}

// valid reports whether parent can receive a reply.
func (t *Thread) valid(parent int) bool {
	return parent == NoParent || (parent >= 0 && parent < len(t.Replies))
}

func (t *Thread) depthUnder(parent int) int {
	if parent == NoParent {
		return 0
	}
	return t.Replies[parent].Depth + 1
}

func (t *Thread) indexOf(id string) int {
	for i, r := range t.Replies {
		if r.ID == id {
			return i
		}
	}
	return -1
}
