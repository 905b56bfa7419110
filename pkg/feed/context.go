package feed

import (
	"fmt"
	"strings"

	"forum/pkg/post"
)

type ViewMode int

const (
	Home ViewMode = iota
	Explore
)

func (v ViewMode) String() string {
	if v == Explore {
		return "explore"
	}
	return "home"
}

func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "home":
		return Home, nil
	case "explore":
		return Explore, nil
	}
	return Home, fmt.Errorf("feed: unknown view %q", s)
}

// SortMode None means nothing was picked.
type SortMode int

const (
	None SortMode = iota
	MostLiked
	LeastLiked
	Latest
	Oldest
)

var sortNames = map[SortMode]string{
	None:       "",
	MostLiked:  "most_liked",
	LeastLiked: "least_liked",
	Latest:     "latest",
	Oldest:     "oldest",
}

func (s SortMode) String() string {
	if n, ok := sortNames[s]; ok {
		return n
	}
	return fmt.Sprintf("SortMode(%d)", int(s))
}

// Refetches reports whether the mode bypasses the cache.
func (s SortMode) Refetches() bool {
	return s == Latest || s == Oldest
}

// ParseSortMode accepts the wire names and the picker labels ("Most Liked").
func ParseSortMode(s string) (SortMode, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	for mode, name := range sortNames {
		if name == norm {
			return mode, nil
		}
	}
	return None, fmt.Errorf("feed: unknown sort %q", s)
}

// FeedContext is the filter state of one view.
type FeedContext struct {
	View      ViewMode `json:"view"`
	UserId    string   `json:"-"`
	Keyword   string   `json:"keyword"`
	Community string   `json:"community"`
	Tag       string   `json:"tag"`
	Sort      SortMode `json:"sort"`
}

// NewFeedContext returns the defaults of a freshly entered view.
func NewFeedContext(view ViewMode, userId string) FeedContext {
	fc := FeedContext{
		View:      view,
		UserId:    userId,
		Community: post.AllCommunities,
		Tag:       post.AllTags,
	}
	if view == Explore {
		fc.Sort = MostLiked
	}
	return fc
}

func (fc FeedContext) keyword() string {
	return strings.ToLower(strings.TrimSpace(fc.Keyword))
}

func isAll(v, sentinel string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == sentinel
}

func (v ViewMode) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *ViewMode) UnmarshalText(b []byte) error {
	m, err := ParseViewMode(string(b))
	if err != nil {
		return err
	}
	*v = m
	return nil
}

func (s SortMode) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SortMode) UnmarshalText(b []byte) error {
	m, err := ParseSortMode(string(b))
	if err != nil {
		return err
	}
	*s = m
	return nil
}
