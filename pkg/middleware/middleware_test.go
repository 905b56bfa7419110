package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/sessions"
	"forum/pkg/user"
)

type fakeSessions struct {
	u   *user.User
	err error
}

func (f fakeSessions) UserFromToken(context.Context, string) (*user.User, error) { return f.u, f.err }

type fakeUsers struct {
	u   *user.User
	err error
}

func (f fakeUsers) GetById(context.Context, string) (*user.User, error) { return f.u, f.err }

func whoami(w http.ResponseWriter, r *http.Request) {
	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(u.Username))
}

func TestAuthMiddleware(t *testing.T) {
	pike := &user.User{Id: "1", Username: "pike"}

	cases := []struct {
		name   string
		header string
		sm     fakeSessions
		repo   fakeUsers
		status int
		body   string
	}{
		{"no header", "", fakeSessions{}, fakeUsers{}, http.StatusOK, "anonymous"},
		{"bad token", "Bearer x", fakeSessions{err: errors.New("invalid")}, fakeUsers{}, http.StatusOK, "anonymous"},
		{"known user", "Bearer x", fakeSessions{u: pike}, fakeUsers{u: pike}, http.StatusOK, "pike"},
		{"expired session", "Bearer x", fakeSessions{err: errors.New("no such session")}, fakeUsers{u: pike}, http.StatusOK, "anonymous"},
		{"deleted user", "Bearer x", fakeSessions{u: pike}, fakeUsers{err: fmt.Errorf("user/repo: %w", common.ErrNotFound)}, http.StatusUnauthorized, ""},
		{"session store down", "Bearer x", fakeSessions{err: common.StoreErr("sessions", errors.New("refused"))}, fakeUsers{}, http.StatusServiceUnavailable, ""},
		{"user store down", "Bearer x", fakeSessions{u: pike}, fakeUsers{err: common.StoreErr("user/repo", errors.New("refused"))}, http.StatusServiceUnavailable, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthMiddleware(tc.sm, tc.repo).Middleware(http.HandlerFunc(whoami))
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareNamesUserInLogs(t *testing.T) {
	pike := &user.User{Id: "1", Username: "pike"}
	root := zap.NewNop().Sugar()

	var got *zap.SugaredLogger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.Log(r.Context())
	})
	h := NewAuthMiddleware(fakeSessions{u: pike}, fakeUsers{u: pike}).Middleware(inner)

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), root))
	req.Header.Set("Authorization", "Bearer x")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotNil(t, got)
	assert.NotSame(t, root, got)
}

func TestLoggingChain(t *testing.T) {
	lm := NewLoggingMiddleware(zap.NewNop().Sugar())

	var gotLogger *zap.SugaredLogger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLogger = logger.Log(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
	h := lm.SetupTracing(lm.SetupLogging(lm.AccessLog(inner)))

	t.Run("new request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/api/feed", nil))

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Len(t, w.Header().Get(requestIdHeader), 36)
		assert.NotNil(t, gotLogger)
	})

	t.Run("incoming request id is kept", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/feed", nil)
		req.Header.Set(requestIdHeader, "abc")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "abc", w.Header().Get(requestIdHeader))
	})
}
