package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var ErrUnauthorized = errors.New("unauthorized")

// Session holds the bearer token and transport shared by every console
// request. It replaces implicit global token storage: callers construct a
// session explicitly and observe forced logout through OnUnauthorized
// instead of a hidden redirect inside the HTTP layer.
type Session struct {
	mu             sync.Mutex
	baseURL        string
	token          string
	client         *http.Client
	onUnauthorized func()
}

// NewSession creates a session for the API at baseURL (without the /api
// suffix).
func NewSession(baseURL string) *Session {
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken stores the bearer token attached to subsequent requests.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the current bearer token, empty after a 401.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// OnUnauthorized registers the callback fired when the backend answers
// 401. The token is already cleared when it runs.
func (s *Session) OnUnauthorized(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUnauthorized = fn
}

// apiError carries the backend's error payload.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// do issues one JSON request. A 401 response clears the token, fires the
// unauthorized callback and returns ErrUnauthorized.
func (s *Session) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := s.baseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := s.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		s.mu.Lock()
		s.token = ""
		fn := s.onUnauthorized
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = resp.Status
		}
		return &apiError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
