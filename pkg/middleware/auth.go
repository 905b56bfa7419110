package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/sessions"
	"forum/pkg/user"
)

const userLookupTimeout = 5 * time.Second

type (
	IUserRepo interface {
		GetById(context.Context, string) (*user.User, error)
	}
	ISessionManager interface {
		UserFromToken(context.Context, string) (*user.User, error)
	}
	Auth struct {
		UserRepo       IUserRepo
		SessionManager ISessionManager
	}
)

func NewAuthMiddleware(sm ISessionManager, ur IUserRepo) *Auth {
	return &Auth{
		UserRepo:       ur,
		SessionManager: sm,
	}
}

// Middleware resolves the bearer token into a user. The feed is readable
// without an account, so a missing, malformed or expired token leaves the
// request anonymous; voting and replying handlers check sessions.GetAuthUser.
// A session or user store outage is reported as such instead of silently
// logging the user out.
func (auth Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := auth.resolve(r.Context(), authHeader)
		switch {
		case errors.Is(err, ErrStoreUnavailable):
			logger.Log(r.Context()).Errorf("auth: session lookup failed: %v", err)
			WriteErr(w, err)
			return
		case errors.Is(err, ErrNotFound):
			logger.Log(r.Context()).Warnf("auth: token of a removed account: %v", err)
			WriteMsg(w, "user not found", http.StatusUnauthorized)
			return
		case err != nil:
			logger.Log(r.Context()).Warnf("auth: continuing anonymously: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		// Everything logged further down names the acting user.
		ctx := sessions.WithAuthUser(r.Context(), u)
		ctx = logger.WithLogger(ctx, logger.Log(ctx).With("user_id", u.Id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (auth Auth) resolve(ctx context.Context, authHeader string) (*user.User, error) {
	fromToken, err := auth.SessionManager.UserFromToken(ctx, authHeader)
	if err != nil {
		return nil, err
	}

	repoCtx, cancel := context.WithTimeout(ctx, userLookupTimeout)
	defer cancel()
	u, err := auth.UserRepo.GetById(repoCtx, fromToken.Id)
	if err != nil {
		return nil, err
	}
	return u, nil
}
