package api

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/middleware"
	"forum/pkg/user"
)

var (
	userId         = "1"
	username       = "pike"
	email          = "pike@example.com"
	salt           = "12345678"
	password       = "sdfsdfsdf"
	hashedPassword = common.HashPass("sdfsdfsdf", salt)
	jwtToken       = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJ1c2VyIjp7InVzZXJuYW1lIjoicGlrZSIsImlkIjoiMSJ9fQ.signature"
)

func TestLogIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	existingUser := user.User{Id: userId, Username: username, Password: hashedPassword}
	mockRepo := NewMockUserRepo(ctrl)
	mockSm := NewMockSessionManager(ctrl)
	handler := &UserHandler{
		Repo:           mockRepo,
		SessionManager: mockSm,
	}

	logMiddleware := middleware.NewLoggingMiddleware(logger.Run("fatal"))
	h := logMiddleware.SetupLogging(http.HandlerFunc(handler.LogIn))

	loginReq := func(un, pw string) *http.Request {
		body := strings.NewReader(`{"username": "` + un + `", "password": "` + pw + `"}`)
		return httptest.NewRequest("POST", "/api/login", body)
	}

	t.Run("login is OK", func(t *testing.T) {
		mockRepo.EXPECT().GetByUsernameAndPass(gomock.Any(), username, password).Return(&existingUser, nil)
		mockSm.EXPECT().CleanupUserSessions(gomock.Any(), userId).Return(nil)
		mockSm.EXPECT().CreateToken(gomock.Any(), &existingUser).Return(jwtToken, nil)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, loginReq(username, password))
		resp := w.Result()

		body, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			t.Errorf("error reading login response body")
			return
		}
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		if !bytes.Contains(body, []byte(jwtToken)) {
			t.Errorf("login response doesn't contain JWT token")
			return
		}
	})

	t.Run("user not found", func(t *testing.T) {
		badUsername, badPassword := "notexists", "nevermind"
		mockRepo.EXPECT().GetByUsernameAndPass(gomock.Any(), badUsername, badPassword).
			Return(nil, fmt.Errorf("user not found"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, loginReq(badUsername, badPassword))
		if w.Code != 404 {
			t.Errorf("expected 404, got %d", w.Code)
			return
		}
	})

	t.Run("session store down", func(t *testing.T) {
		mockRepo.EXPECT().GetByUsernameAndPass(gomock.Any(), username, password).Return(&existingUser, nil)
		mockSm.EXPECT().CleanupUserSessions(gomock.Any(), userId).
			Return(common.StoreErr("sessions/manager: no redis connection", fmt.Errorf("refused")))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, loginReq(username, password))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("POST", "/api/login", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRegister(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := NewMockUserRepo(ctrl)
	mockSm := NewMockSessionManager(ctrl)
	handler := NewUserHandler(mockRepo, mockSm)

	registerReq := func(un, em, pw string) *http.Request {
		body := fmt.Sprintf(`{"username": %q, "email": %q, "password": %q}`, un, em, pw)
		return httptest.NewRequest("POST", "/api/register", strings.NewReader(body))
	}

	t.Run("register is OK", func(t *testing.T) {
		mockRepo.EXPECT().UserExists(gomock.Any(), username).Return(false)
		mockRepo.EXPECT().Add(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u *user.User) (string, error) {
				assert.Equal(t, username, u.Username)
				assert.Equal(t, email, u.Email)
				assert.True(t, common.CheckPass(password, u.Password))
				return userId, nil
			})
		mockSm.EXPECT().CreateToken(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u *user.User) (string, error) {
				assert.Equal(t, userId, u.Id)
				return jwtToken, nil
			})

		w := httptest.NewRecorder()
		handler.Register(w, registerReq(username, email, password))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"token":"`+jwtToken+`"}`, w.Body.String())
	})

	t.Run("user exists", func(t *testing.T) {
		mockRepo.EXPECT().UserExists(gomock.Any(), username).Return(true)

		w := httptest.NewRecorder()
		handler.Register(w, registerReq(username, email, password))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			un, em, pw string
			msg        string
		}{
			{"", email, password, "username is required"},
			{username, "not-an-email", password, "invalid email address"},
			{username, email, "12345", "password must be at least 6 characters"},
		}
		for _, c := range cases {
			w := httptest.NewRecorder()
			handler.Register(w, registerReq(c.un, c.em, c.pw))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"message":"`+c.msg+`"}`, w.Body.String())
		}
	})

	t.Run("token failure", func(t *testing.T) {
		mockRepo.EXPECT().UserExists(gomock.Any(), username).Return(false)
		mockRepo.EXPECT().Add(gomock.Any(), gomock.Any()).Return(userId, nil)
		mockSm.EXPECT().CreateToken(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("redis down"))

		w := httptest.NewRecorder()
		handler.Register(w, registerReq(username, email, password))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
