package api

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/user"
)

const minPasswordLen = 6

var emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)

type (
	UserRepo interface {
		UserExists(context.Context, string) bool
		GetByUsernameAndPass(context.Context, string, string) (*user.User, error)
		Add(context.Context, *user.User) (string, error)
	}

	SessionManager interface {
		CreateToken(context.Context, *user.User) (string, error)
		CleanupUserSessions(ctx context.Context, userId string) error
	}

	UserHandler struct {
		Repo           UserRepo
		SessionManager SessionManager
	}

	HttpUser struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

func NewUserHandler(r UserRepo, sm SessionManager) *UserHandler {
	return &UserHandler{
		Repo:           r,
		SessionManager: sm,
	}
}

func (uh UserHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	httpUser := new(HttpUser)
	err := common.ParseReqBody(r.Body, httpUser)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't parse request body as user: %v", err)
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	u, err := uh.Repo.GetByUsernameAndPass(r.Context(), httpUser.Username, httpUser.Password)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't get the user by username `%s` and password: %v",
			httpUser.Username, err)
		common.WriteMsg(w, "user not found", http.StatusNotFound)
		return
	}

	if err := uh.SessionManager.CleanupUserSessions(r.Context(), u.Id); err != nil {
		logger.Log(r.Context()).Errorf("can't cleanup sessions for user `%s`: %v", httpUser.Username, err)
		common.WriteErr(w, err)
		return
	}

	uh.sendToken(w, r, u, http.StatusOK)
}

func (uh UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	httpUser := new(HttpUser)
	err := common.ParseReqBody(r.Body, httpUser)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't parse request body as user: %v", err)
		common.WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	if msg := validate(httpUser); msg != "" {
		common.WriteMsg(w, msg, http.StatusBadRequest)
		return
	}

	if uh.Repo.UserExists(r.Context(), httpUser.Username) {
		msg := fmt.Sprintf(`user "%s" already exists`, httpUser.Username)
		logger.Log(r.Context()).Warn(msg)
		common.WriteMsg(w, msg, http.StatusConflict)
		return
	}

	u := &user.User{
		Username: httpUser.Username,
		Email:    httpUser.Email,
		Password: common.NewPassHash(httpUser.Password),
	}
	id, err := uh.Repo.Add(r.Context(), u)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't add user `%s`: %v", u.Username, err)
		common.WriteMsg(w, "can't add user", http.StatusInternalServerError)
		return
	}
	u.Id = id

	uh.sendToken(w, r, u, http.StatusCreated)
}

func validate(u *HttpUser) string {
	switch {
	case strings.TrimSpace(u.Username) == "":
		return "username is required"
	case !emailRe.MatchString(strings.TrimSpace(u.Email)):
		return "invalid email address"
	case len(u.Password) < minPasswordLen:
		return fmt.Sprintf("password must be at least %d characters", minPasswordLen)
	}
	return ""
}

func (uh *UserHandler) sendToken(w http.ResponseWriter, r *http.Request, u *user.User, status int) {
	token, err := uh.SessionManager.CreateToken(r.Context(), u)
	if err != nil {
		logger.Log(r.Context()).Errorf("can't create JWT token from user: %v", err)
		common.WriteMsg(w, "user authentication failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	tk := struct {
		Token string `json:"token"`
	}{token}
	common.WriteRespJSON(w, tk)
}
