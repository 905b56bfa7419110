package middleware

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"forum/pkg/logger"
)

type ctxKey string

const (
	requestIdKey    ctxKey = "requestId"
	requestIdHeader        = "X-Request-Id"
)

type LoggingMiddleware struct {
	log *zap.SugaredLogger
}

func NewLoggingMiddleware(l *zap.SugaredLogger) *LoggingMiddleware {
	return &LoggingMiddleware{log: l}
}

// SetupTracing reuses the incoming request id or makes a new one.
func (lm *LoggingMiddleware) SetupTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqId := r.Header.Get(requestIdHeader)
		if reqId == "" {
			reqId = uuid.NewString()
		}
		w.Header().Set(requestIdHeader, reqId)
		ctx := context.WithValue(r.Context(), requestIdKey, reqId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (lm *LoggingMiddleware) SetupLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := lm.log
		if reqId, ok := r.Context().Value(requestIdKey).(string); ok {
			l = l.With("request_id", reqId)
		}
		next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), l)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the access log.
func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("middleware: response writer can't be hijacked")
	}
	sw.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (lm *LoggingMiddleware) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Log(r.Context()).Infow("access",
			"method", r.Method,
			"url", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}
