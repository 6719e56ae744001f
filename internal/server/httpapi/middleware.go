package httpapi

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/logging"
	"github.com/dmitrijs2005/gophaccount/internal/server/auth"
	"github.com/dmitrijs2005/gophaccount/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AccountFinder loads the current state of an account.
type AccountFinder interface {
	FindAccount(ctx context.Context, id int64) (*models.AccountView, error)
}

// Auth failure reasons, used as log fields and metric labels.
const (
	reasonMissingToken = "missing_token"
	reasonMalformed    = "malformed"
	reasonInvalid      = "invalid"
	reasonExpired      = "expired"
	reasonNoPrincipal  = "no_principal"
	reasonStaleAccount = "stale_account"
	reasonRole         = "role_not_allowed"
)

// Gate holds the collaborators of the Authenticate and Authorize middleware.
type Gate struct {
	tokens   TokenVerifier
	accounts AccountFinder
	log      logging.Logger
	metrics  metrics.Recorder
}

// NewGate builds a Gate.
func NewGate(tokens TokenVerifier, accounts AccountFinder, log logging.Logger, m metrics.Recorder) *Gate {
	return &Gate{
		tokens:   tokens,
		accounts: accounts,
		log:      log.With("module", "access_gate"),
		metrics:  m,
	}
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, reason string, args ...any) {
	g.metrics.RecordAuthFailure(reason)
	g.log.Warn(r.Context(), "access denied", append([]any{"reason", reason, "path", r.URL.Path}, args...)...)
	writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get(common.AuthorizationHeaderName))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return reasonExpired
	case errors.Is(err, common.ErrTokenMalformed):
		return reasonMalformed
	default:
		return reasonInvalid
	}
}

// Authenticate verifies the bearer token and stores the Principal in the
// request context. Every failure is a 401 with the same body.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			g.reject(w, r, reasonMissingToken)
			return
		}

		claims, err := g.tokens.Verify(token)
		if err != nil {
			g.reject(w, r, failureReason(err))
			return
		}

		if st := requestStateFromContext(r.Context()); st != nil {
			st.accountID = claims.UserID
		}

		ctx := ContextWithPrincipal(r.Context(), Principal{AccountID: claims.UserID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize admits the request only if the principal's account still exists
// and currently holds one of roles. The account is re-read on every call so
// role changes apply before the token expires.
func (g *Gate) Authorize(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				g.reject(w, r, reasonNoPrincipal)
				return
			}

			account, err := g.accounts.FindAccount(r.Context(), p.AccountID)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					g.reject(w, r, reasonStaleAccount, "account_id", p.AccountID)
					return
				}
				writeInternalError(w, r, g.log, "authorization lookup failed", "error", err, "account_id", p.AccountID)
				return
			}

			for _, role := range roles {
				if account.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			g.reject(w, r, reasonRole, "account_id", p.AccountID, "role", account.Role)
		})
	}
}

// statusRecorder wraps http.ResponseWriter and remembers the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// NewRequestMiddleware assigns the request id, logs one line per request
// and records request metrics. An incoming X-Request-Id is kept when it is a
// valid UUID.
func NewRequestMiddleware(log logging.Logger, m metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(common.RequestIDHeaderName)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(common.RequestIDHeaderName, id)

			st := &requestState{requestID: id}
			r = r.WithContext(contextWithRequestState(r.Context(), st))

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			duration := time.Since(start)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.RecordRequest(r.Method, route, rec.statusCode, duration)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.statusCode,
				"duration_ms", float64(duration.Nanoseconds()) / float64(time.Millisecond),
				"request_id", id,
			}
			if st.accountID != 0 {
				args = append(args, "account_id", st.accountID)
			}

			switch {
			case rec.statusCode >= 500:
				log.Error(r.Context(), "http_request", args...)
			case rec.statusCode >= 400:
				log.Warn(r.Context(), "http_request", args...)
			default:
				log.Info(r.Context(), "http_request", args...)
			}
		})
	}
}

// NewRecoveryMiddleware turns a handler panic into a generic 500.
func NewRecoveryMiddleware(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					writeInternalError(w, r, log, "panic recovered",
						"panic", rec,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NewSecurityHeadersMiddleware sets conservative security response headers.
func NewSecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}

// NewCORSMiddleware answers preflight requests and sets the CORS headers for
// allowedOrigin. An empty origin disables CORS.
func NewCORSMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedOrigin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+common.RequestIDHeaderName)
			h.Set("Access-Control-Expose-Headers", common.RequestIDHeaderName)
			h.Set("Access-Control-Max-Age", "600")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
