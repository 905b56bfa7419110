package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gomodule/redigo/redis"
	"github.com/jonboulle/clockwork"

	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/user"
)

const (
	redisNS    = "forumSessions:"
	sessionTTL = 90 * 24 * time.Hour
	// Sessions expiring sooner than this are prolonged on use.
	prolongBelow = 24 * time.Hour
)

type (
	sessionKey string

	SessionManager struct {
		secret []byte
		pool   *redis.Pool
		clock  clockwork.Clock
	}

	jwtClaims struct {
		User user.User `json:"user"`
		jwt.StandardClaims
	}
)

const SessionKey sessionKey = "authenticatedUser"

var ErrNoAuth = errors.New("sessions: no session found")

func NewSessionManager(secret string, pool *redis.Pool, clock clockwork.Clock) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		pool:   pool,
		clock:  clock,
	}
}

// UserFromToken returns the user from a bearer token if the token
// and its Redis session are both valid.
func (sm *SessionManager) UserFromToken(ctx context.Context, authHeader string) (*user.User, error) {
	if authHeader == "" {
		return nil, errors.New("sessions: auth header not found")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sessions: unexpected signing method %v", token.Header["alg"])
			}
			return sm.secret, nil
		})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok {
		return nil, errors.New("sessions: can't cast token to claim")
	}
	if !token.Valid {
		return nil, errors.New("sessions: token is not valid")
	}

	if err := sm.CheckRedis(ctx, claims.User.Id, claims.Id); err != nil {
		return nil, fmt.Errorf("sessions/manager: Redis session is not valid: %w", err)
	}

	return &claims.User, nil
}

// CleanupUserSessions removes expired sessions of the user.
func (sm *SessionManager) CleanupUserSessions(ctx context.Context, userId string) error {
	conn, err := sm.pool.GetContext(ctx)
	if err != nil {
		return StoreErr("sessions/manager: no redis connection", err)
	}
	defer conn.Close()

	sessions, err := redis.StringMap(conn.Do("HGETALL", redisNS+userId))
	if err != nil {
		return StoreErr("sessions/manager: can't HGETALL user sessions", err)
	}

	nowTs := sm.clock.Now().Unix()
	for sessId, exp := range sessions {
		expTs, _ := strconv.ParseInt(exp, 10, 64)
		if nowTs > expTs {
			if _, err := conn.Do("HDEL", redisNS+userId, sessId); err != nil {
				return StoreErr("sessions/manager: can't HDEL expired session", err)
			}
			logger.Log(ctx).Infof("session %s of user %s removed (expired at %s)", sessId, userId, exp)
		}
	}

	return nil
}

func (sm *SessionManager) CheckRedis(ctx context.Context, userId, sessionId string) error {
	conn, err := sm.pool.GetContext(ctx)
	if err != nil {
		return StoreErr("sessions/manager: no redis connection", err)
	}
	defer conn.Close()

	expiredTs, err := redis.Int64(conn.Do("HGET", redisNS+userId, sessionId))
	if errors.Is(err, redis.ErrNil) {
		return errors.New("sessions/manager: no such session")
	}
	if err != nil {
		return StoreErr("sessions/manager: can't HGET session", err)
	}

	now := sm.clock.Now()
	if now.Unix() > expiredTs {
		return errors.New("sessions/manager: session has been expired")
	}

	// Active users are not kicked off.
	if expiredTs-now.Unix() < int64(prolongBelow.Seconds()) {
		if _, err := conn.Do("HSET", redisNS+userId, sessionId, now.Add(sessionTTL).Unix()); err != nil {
			return StoreErr("sessions/manager: failed prolonging session", err)
		}
	}

	return nil
}

func (sm *SessionManager) addToRedis(ctx context.Context, userId, sessionId string, exp int64) error {
	conn, err := sm.pool.GetContext(ctx)
	if err != nil {
		return StoreErr("sessions/manager: no redis connection", err)
	}
	defer conn.Close()

	if _, err := conn.Do("HSET", redisNS+userId, sessionId, exp); err != nil {
		return StoreErr("sessions/manager: failed HSET to Redis", err)
	}
	return nil
}

func (sm *SessionManager) CreateToken(ctx context.Context, u *user.User) (string, error) {
	sessionID := RandStringRunes(10)
	now := sm.clock.Now()
	data := jwtClaims{
		User: user.User{Id: u.Id, Username: u.Username},
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(sessionTTL).Unix(),
			IssuedAt:  now.Unix(),
			Id:        sessionID,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, data).SignedString(sm.secret)
	if err != nil {
		return "", fmt.Errorf("sessions/manager: can't sign token: %w", err)
	}

	if err := sm.addToRedis(ctx, u.Id, sessionID, data.ExpiresAt); err != nil {
		logger.Log(ctx).Errorf("failed adding session to redis: %v", err)
		return ``, err
	}

	return token, nil
}

func GetAuthUser(ctx context.Context) (*user.User, error) {
	user, ok := ctx.Value(SessionKey).(*user.User)
	if !ok || user == nil {
		return nil, ErrNoAuth
	}
	return user, nil
}

// WithAuthUser puts the authenticated user into ctx.
func WithAuthUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, SessionKey, u)
}
