package recovery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/jonboulle/clockwork"

	"forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/mail"
	"forum/pkg/metrics"
	"forum/pkg/otp"
	"forum/pkg/user"
)

const (
	ResetTokenTTL  = 10 * time.Minute
	MinPasswordLen = 6
	resetAudience  = "password-reset"
	// Reset grants share the code store under their own identities.
	grantPrefix = "reset-grant:"
)

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)
	codeRe  = regexp.MustCompile(`^\d{6}$`)
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	UpdatePasswordByEmail(ctx context.Context, email string, hash []byte) error
}

type Service struct {
	codes  otp.Store
	mailer mail.Sender
	users  UserStore
	secret []byte
	clock  clockwork.Clock
}

func NewService(codes otp.Store, mailer mail.Sender, users UserStore, secret string, clock clockwork.Clock) *Service {
	return &Service{
		codes:  codes,
		mailer: mailer,
		users:  users,
		secret: []byte(secret),
		clock:  clock,
	}
}

type resetClaims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

// RequestCode issues a code for a registered email and sends it.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !emailRe.MatchString(email) {
		return common.Userf(common.ErrValidation, "Please enter a valid email address.")
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.Userf(err, "No account is registered with this email address.")
		}
		return fmt.Errorf("recovery/service: user lookup: %w", err)
	}

	code, err := s.codes.Generate(ctx, email)
	if err != nil {
		return fmt.Errorf("recovery/service: generate code: %w", err)
	}
	metrics.OtpIssuedTotal.Inc()

	if err := s.mailer.SendOTP(ctx, otp.Normalize(email), code); err != nil {
		logger.Log(ctx).Errorf("recovery: can't send code to %s: %v", email, err)
		if err := s.codes.Invalidate(ctx, email); err != nil {
			logger.Log(ctx).Warnf("recovery: can't drop undelivered code: %v", err)
		}
		return common.Userf(common.StoreErr("recovery/service: mail", err), "Unable to send OTP. Please try again later.")
	}
	return nil
}

// VerifyCode consumes the code and returns a short lived reset token. The
// token id is a one-time grant, so the token resets the password once.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (string, error) {
	code = strings.TrimSpace(code)
	if !codeRe.MatchString(code) {
		return "", common.Userf(common.ErrValidation, "Enter the 6-digit OTP that was emailed to you.")
	}

	ok, err := s.codes.Verify(ctx, email, code)
	metrics.ObserveVerify(ok, err)
	if err != nil {
		return "", fmt.Errorf("recovery/service: verify code: %w", err)
	}
	if !ok {
		return "", common.Userf(common.ErrExpiredCredential, "Invalid or expired OTP. Please try again.")
	}

	grant, err := s.codes.Generate(ctx, grantPrefix+email)
	if err != nil {
		return "", fmt.Errorf("recovery/service: issue reset grant: %w", err)
	}

	now := s.clock.Now()
	claims := resetClaims{
		Email: otp.Normalize(email),
		StandardClaims: jwt.StandardClaims{
			Id:        grant,
			Audience:  resetAudience,
			ExpiresAt: now.Add(ResetTokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("recovery/service: sign reset token: %w", err)
	}
	return token, nil
}

// ResetPassword sets a new password for the email carried by token.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		logger.Log(ctx).Warnf("recovery: bad reset token: %v", err)
		return common.Userf(common.ErrExpiredCredential, "Please verify the OTP before resetting your password.")
	}

	if len(password) < MinPasswordLen {
		return common.Userf(common.ErrValidation, fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLen))
	}
	if password != confirm {
		return common.Userf(common.ErrValidation, "Passwords do not match.")
	}

	email := claims.Email
	ok, err := s.codes.Verify(ctx, grantPrefix+email, claims.Id)
	if err != nil {
		return fmt.Errorf("recovery/service: consume reset grant: %w", err)
	}
	if !ok {
		logger.Log(ctx).Warnf("recovery: reset token for %s was already used", email)
		return common.Userf(common.ErrExpiredCredential, "Please verify the OTP before resetting your password.")
	}

	if err := s.users.UpdatePasswordByEmail(ctx, email, common.NewPassHash(password)); err != nil {
		return fmt.Errorf("recovery/service: update password: %w", err)
	}

	if err := s.codes.Invalidate(ctx, email); err != nil {
		logger.Log(ctx).Warnf("recovery: can't invalidate codes of %s: %v", email, err)
	}
	return nil
}

func (s *Service) parseToken(token string) (*resetClaims, error) {
	parser := jwt.Parser{SkipClaimsValidation: true}
	claims := &resetClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !claims.VerifyAudience(resetAudience, true) {
		return nil, errors.New("token is not a reset token")
	}
	if !claims.VerifyExpiresAt(s.clock.Now().Unix(), true) {
		return nil, errors.New("reset token expired")
	}
	if claims.Email == "" || claims.Id == "" {
		return nil, errors.New("reset token carries no email or grant")
	}
	return claims, nil
}
