package reply

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/post"
	"forum/pkg/sessions"
)

type (
	IReplyRepo interface {
		GetThread(ctx context.Context, postID int64) (*Thread, error)
		AddReply(ctx context.Context, postID int64, parent int, author, body string) (int, *Thread, error)
	}

	// IPostRepo keeps the denormalized comment count of posts.
	IPostRepo interface {
		GetById(context.Context, post.PostId) (*post.Post, error)
		IncCommentCount(context.Context, post.PostId) error
	}

	ReplyHandler struct {
		Replies IReplyRepo
		Posts   IPostRepo
	}

	httpReply struct {
		Parent *int   `json:"parent"`
		Body   string `json:"body"`
	}
)

func NewReplyHandler(replies IReplyRepo, posts IPostRepo) *ReplyHandler {
	return &ReplyHandler{Replies: replies, Posts: posts}
}

func (rh *ReplyHandler) Thread(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}
	if _, err := rh.Posts.GetById(r.Context(), post.PostId(postID)); err != nil {
		logger.Log(r.Context()).Errorf("can't get post %d for thread: %v", postID, err)
		WriteErr(w, err)
		return
	}

	t, err := rh.Replies.GetThread(r.Context(), postID)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't get thread of post %d: %v", postID, err)
		WriteErr(w, err)
		return
	}
	WriteRespJSON(w, t)
}

func (rh *ReplyHandler) Add(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	author, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteMsg(w, "not authorized", http.StatusUnauthorized)
		return
	}

	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	req := new(httpReply)
	if err := ParseReqBody(r.Body, req); err != nil {
		logger.Log(r.Context()).Errorf("can't parse reply body: %v", err)
		WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}
	parent := NoParent
	if req.Parent != nil {
		parent = *req.Parent
	}

	if _, err := rh.Posts.GetById(r.Context(), post.PostId(postID)); err != nil {
		logger.Log(r.Context()).Errorf("can't reply to post %d: %v", postID, err)
		WriteErr(w, err)
		return
	}

	idx, t, err := rh.Replies.AddReply(r.Context(), postID, parent, author.Username, req.Body)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add reply to post %d: %v", postID, err)
		WriteErr(w, err)
		return
	}

	if err := rh.Posts.IncCommentCount(r.Context(), post.PostId(postID)); err != nil {
		// The reply is stored; only the counter lags.
		logger.Log(r.Context()).Warnf("can't bump comment count of post %d: %v", postID, err)
	}

	w.WriteHeader(http.StatusCreated)
	WriteRespJSON(w, struct {
		Index  int     `json:"index"`
		Thread *Thread `json:"thread"`
	}{idx, t})
}

func parsePostID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["post_id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Log(r.Context()).Errorf("bad post id %q: %v", raw, err)
		WriteMsg(w, "bad post id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
