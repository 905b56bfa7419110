package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/metrics"
	"forum/pkg/sessions"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type FeedHandler struct {
	Pipeline    *Pipeline
	Voter       Voter
	Clock       clockwork.Clock
	SearchDelay time.Duration
}

func NewFeedHandler(p *Pipeline, voter Voter, clock clockwork.Clock, searchDelay time.Duration) *FeedHandler {
	return &FeedHandler{
		Pipeline:    p,
		Voter:       voter,
		Clock:       clock,
		SearchDelay: searchDelay,
	}
}

func userIdOf(r *http.Request) string {
	if u, err := sessions.GetAuthUser(r.Context()); err == nil {
		return u.Id
	}
	return ""
}

// List renders one feed from query parameters:
// view, q, community, tag and sort.
func (fh *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	q := r.URL.Query()
	view, err := ParseViewMode(q.Get("view"))
	if err != nil {
		WriteMsg(w, err.Error(), http.StatusBadRequest)
		return
	}
	fc := NewFeedContext(view, userIdOf(r))
	fc.Keyword = q.Get("q")
	if v := q.Get("community"); v != "" {
		fc.Community = v
	}
	if v := q.Get("tag"); v != "" {
		fc.Tag = v
	}
	if v := q.Get("sort"); v != "" {
		if fc.Sort, err = ParseSortMode(v); err != nil {
			WriteMsg(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	cache := NewCache()
	if err := fh.Pipeline.Enter(r.Context(), fc, cache); err != nil {
		WriteErr(w, err)
		return
	}
	res := fh.Pipeline.Apply(r.Context(), fc, cache)

	WriteRespJSON(w, struct {
		Context FeedContext `json:"context"`
		Result
	}{fc, res})
}

// Live upgrades to a websocket and runs a View for the connection. The
// client sends Events and receives Updates.
func (fh *FeedHandler) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log(r.Context()).Errorf("feed: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	metrics.FeedViewsActive.Inc()
	defer metrics.FeedViewsActive.Dec()

	// The request context is not canceled on hijacked connections.
	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), logger.Log(r.Context())))
	defer cancel()

	view := NewView(fh.Pipeline, fh.Voter, fh.Clock, fh.SearchDelay, userIdOf(r))
	go view.Run(ctx)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for u := range view.Updates() {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				logger.Log(ctx).Warnf("feed: write to client failed: %v", err)
				cancel()
				return
			}
		}
	}()

	view.Send(Event{Type: EventEnter, View: Home})
	for {
		e := Event{}
		if err := conn.ReadJSON(&e); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log(ctx).Warnf("feed: read from client failed: %v", err)
			}
			break
		}
		if !view.Send(e) {
			break
		}
	}
	cancel()
	<-writerDone
}
