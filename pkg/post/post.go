package post

import (
	"time"
)

type PostId int64

type Post struct {
	Id        PostId    `json:"id"`
	Community string    `json:"community"`
	Author    string    `json:"author"`
	Created   time.Time `json:"created"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`

	// Tag is empty when the post has none.
	Tag string `json:"tag,omitempty"`

	Score    int `json:"score"`
	Comments int `json:"comments"`
}

type Community struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}
