package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestLoginLimiter_BlocksAfterBurst(t *testing.T) {
	m := &spyRecorder{}
	l := NewLoginLimiter(3, logging.Nop{}, m)
	defer l.Stop()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do("10.0.0.1:1234").Code)
	}

	w := do("10.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "20", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"message":"too many login attempts, try again later"}`, w.Body.String())
	assert.Equal(t, 1, m.rateLimited)

	// other clients have their own budget
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234").Code)
	assert.Equal(t, 2, l.Len())
}

func TestLoginLimiter_DefaultRate(t *testing.T) {
	l := NewLoginLimiter(0, logging.Nop{}, &spyRecorder{})
	defer l.Stop()
	assert.Equal(t, DefaultLoginRatePerMinute, l.burst)
}

func TestLoginLimiter_Cleanup(t *testing.T) {
	l := NewLoginLimiter(5, logging.Nop{}, &spyRecorder{})
	defer l.Stop()

	now := time.Now()
	l.get("old", now.Add(-time.Hour))
	l.get("fresh", now)

	l.cleanup(now)

	assert.Equal(t, 1, l.Len())
	_, ok := l.limiters["fresh"]
	assert.True(t, ok)
}

func TestLoginLimiter_StopIsIdempotent(t *testing.T) {
	l := NewLoginLimiter(5, logging.Nop{}, &spyRecorder{})
	assert.NotPanics(t, func() {
		l.Stop()
		l.Stop()
	})
}
