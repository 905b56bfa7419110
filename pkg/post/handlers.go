package post

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/sessions"
	"forum/pkg/voting"
)

const (
	AllCommunities = "All Communities"
	AllTags        = "All Tags"
)

type IPostRepo interface {
	GetById(context.Context, PostId) (*Post, error)
	ListCommunities(context.Context) ([]*Community, error)
	ListTags(context.Context) ([]string, error)
}

type IVoter interface {
	Apply(ctx context.Context, postId PostId, userId string, vote voting.Direction) (Outcome, error)
}

type PostHandler struct {
	PostRepo IPostRepo
	Voter    IVoter
}

func NewPostHandler(postRepo IPostRepo, voter IVoter) *PostHandler {
	return &PostHandler{
		PostRepo: postRepo,
		Voter:    voter,
	}
}

func (ph *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	postId, ok := parsePostId(w, r)
	if !ok {
		return
	}
	post, err := ph.PostRepo.GetById(r.Context(), postId)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't get post with id %d: %v", postId, err)
		WriteErr(w, err)
		return
	}

	WriteRespJSON(w, post)
}

// Communities lists the community filter options, the "all" sentinel first.
func (ph *PostHandler) Communities(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	communities, err := ph.PostRepo.ListCommunities(r.Context())
	if err != nil {
		logger.Log(r.Context()).Errorf("can't load communities: %v", err)
		WriteErr(w, err)
		return
	}

	names := make([]string, 0, len(communities)+1)
	names = append(names, AllCommunities)
	for _, c := range communities {
		names = append(names, c.Name)
	}
	WriteRespJSON(w, struct {
		Options     []string     `json:"options"`
		Communities []*Community `json:"communities"`
	}{names, communities})
}

// Tags lists the tag filter options, the "all" sentinel first.
func (ph *PostHandler) Tags(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	tags, err := ph.PostRepo.ListTags(r.Context())
	if err != nil {
		logger.Log(r.Context()).Errorf("can't load tags: %v", err)
		WriteErr(w, err)
		return
	}

	WriteRespJSON(w, struct {
		Options []string `json:"options"`
	}{append([]string{AllTags}, tags...)})
}

func (ph *PostHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	ph.vote(w, r, voting.ScoreUp)
}

func (ph *PostHandler) Downvote(w http.ResponseWriter, r *http.Request) {
	ph.vote(w, r, voting.ScoreDown)
}

func (ph *PostHandler) vote(w http.ResponseWriter, r *http.Request, vote voting.Direction) {
	w.Header().Set("Content-Type", "application/json")

	voter, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		logger.Log(r.Context()).Errorf("can't get user from JWT token: %v", err)
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	postId, ok := parsePostId(w, r)
	if !ok {
		return
	}

	out, err := ph.Voter.Apply(r.Context(), postId, voter.Id, vote)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't vote for post %d: %v", postId, err)
		WriteErr(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	WriteRespJSON(w, out)
}

func parsePostId(w http.ResponseWriter, r *http.Request) (PostId, bool) {
	raw := mux.Vars(r)["post_id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Log(r.Context()).Errorf("bad post id %q: %v", raw, err)
		WriteMsg(w, "bad post id", http.StatusBadRequest)
		return 0, false
	}
	return PostId(id), true
}
