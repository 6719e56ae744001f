package httpapi

import (
	"strconv"
	"sync"
	"time"
)

type recordedRequest struct {
	method string
	route  string
	status int
}

// spyRecorder is a metrics.Recorder that remembers what it was told.
type spyRecorder struct {
	mu           sync.Mutex
	requests     []recordedRequest
	authFailures []string
	rateLimited  int
}

func (s *spyRecorder) RecordRequest(method, route string, status int, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, recordedRequest{method: method, route: route, status: status})
}

func (s *spyRecorder) RecordAuthFailure(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFailures = append(s.authFailures, reason)
}

func (s *spyRecorder) RecordLoginRateLimited() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimited++
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
