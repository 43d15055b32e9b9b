package daemon

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"cheatdb/internal/logging"
)

// operatorHeader names the operator on whose behalf a request is made.
const operatorHeader = "X-Operator-ID"

// requestIDHeader carries the correlation id of a request.
const requestIDHeader = "X-Request-ID"

// authMiddleware returns a middleware that validates bearer tokens.
// If token is empty, no authentication is required and all requests pass through.
// Otherwise, requests must include "Authorization: Bearer <token>" header.
func authMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if strings.TrimPrefix(auth, "Bearer ") != token {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// correlationMiddleware tags each request with a correlation id, reusing
// the caller's X-Request-ID when present.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithCorrelationID(r.Context(), strings.TrimSpace(r.Header.Get(requestIDHeader)))
		id, _ := logging.CorrelationIDFromContext(ctx)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// operatorChecker reports whether an id is a registered operator.
type operatorChecker interface {
	IsOperator(ctx context.Context, id int64) (bool, error)
}

// requireOperator rejects requests whose X-Operator-ID is missing or not a
// registered operator, and tags the context with the operator id.
func (s *apiServer) requireOperator(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(operatorHeader))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			s.writeError(w, http.StatusUnauthorized, "missing or invalid "+operatorHeader)
			return
		}
		ok, err := s.operators.IsOperator(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			s.log(r.Context()).Warn("request from unregistered operator", logging.OperatorID(id))
			s.writeError(w, http.StatusForbidden, "not an operator")
			return
		}
		next(w, r.WithContext(logging.WithOperator(r.Context(), id)), id)
	}
}
