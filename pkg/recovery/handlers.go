package recovery

import (
	"context"
	"net/http"

	. "forum/pkg/common"
	"forum/pkg/logger"
)

type IRecovery interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, token, password, confirm string) error
}

type Handler struct {
	Service IRecovery
}

func NewHandler(s IRecovery) *Handler {
	return &Handler{Service: s}
}

type (
	codeRequest struct {
		Email string `json:"email"`
		Code  string `json:"code,omitempty"`
	}
	resetRequest struct {
		Token    string `json:"token"`
		Password string `json:"password"`
		Confirm  string `json:"confirmPassword"`
	}
)

func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	req := new(codeRequest)
	if err := ParseReqBody(r.Body, req); err != nil {
		logger.Log(r.Context()).Errorf("can't parse otp request: %v", err)
		WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	if err := h.Service.RequestCode(r.Context(), req.Email); err != nil {
		logger.Log(r.Context()).Warnf("otp request for %q failed: %v", req.Email, err)
		WriteErr(w, err)
		return
	}
	WriteMsg(w, "OTP sent! Please check your email. (Valid for 10 minutes)", http.StatusOK)
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	req := new(codeRequest)
	if err := ParseReqBody(r.Body, req); err != nil {
		logger.Log(r.Context()).Errorf("can't parse otp verification: %v", err)
		WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	token, err := h.Service.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		logger.Log(r.Context()).Warnf("otp verification for %q failed: %v", req.Email, err)
		WriteErr(w, err)
		return
	}
	WriteRespJSON(w, struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}{"OTP verified! You can now set a new password.", token})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	req := new(resetRequest)
	if err := ParseReqBody(r.Body, req); err != nil {
		logger.Log(r.Context()).Errorf("can't parse password reset: %v", err)
		WriteMsg(w, "bad request format", http.StatusBadRequest)
		return
	}

	if err := h.Service.ResetPassword(r.Context(), req.Token, req.Password, req.Confirm); err != nil {
		logger.Log(r.Context()).Warnf("password reset failed: %v", err)
		WriteErr(w, err)
		return
	}
	WriteMsg(w, "Password updated successfully!", http.StatusOK)
}
