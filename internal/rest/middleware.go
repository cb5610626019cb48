package rest

import (
	"net"
	"net/http"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/time/rate"

	"github.com/aclgate/aclgate/internal/auth"
	"github.com/aclgate/aclgate/pkg/cerr"
	"github.com/aclgate/aclgate/pkg/clog"
)

const requestIDHeader = "X-Request-Id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		clog.AddRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var catcher panics.Catcher
		catcher.Try(func() {
			next.ServeHTTP(w, r)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			cerr.WriteError(r.Context(), w, cerr.NewError(cerr.Internal, "server error", recovered.AsError()))
		}
	})
}

// ipLimiter keeps one token bucket per client address. Entries are never
// evicted; the expected client population is a handful of lab machines.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

func rateLimitMiddleware(rps float64) func(http.Handler) http.Handler {
	limiter := &ipLimiter{
		limiters: map[string]*rate.Limiter{},
		rps:      rate.Limit(rps),
		burst:    int(rps) + 1,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.get(ip).Allow() {
				cerr.WriteError(r.Context(), w, cerr.NewError(cerr.ResourceExhausted, "too many requests", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) bearerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		} else {
			token = ""
		}
		if token == "" {
			cerr.WriteError(r.Context(), w, cerr.NewError(cerr.Unauthenticated, "missing bearer token", nil))
			return
		}
		identity, err := s.authn.Verify(token)
		if err != nil {
			cerr.WriteError(r.Context(), w, err)
			return
		}
		clog.AddUser(r.Context(), identity.Username)
		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	})
}
