// Package apitest provides an in-memory stand-in for the activity sign-up
// service, for tests of code that consumes it. It mirrors the service's
// status codes and detail strings.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/clubdesk/api"
	"github.com/jmcleod/clubdesk/internal/util"
)

// Default teacher account seeded by New.
const (
	TeacherUsername = "ms.smith"
	TeacherPassword = "chalkboard-42"
)

// Server is a running stand-in service.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	activities api.Roster
	teachers   map[string]util.PasswordHash
	sessions   map[string]string
	requests   map[string]int
	dropNext   map[string]int
}

// Option configures the Server instance.
type Option func(*Server)

// WithRoster replaces the seeded activities.
func WithRoster(r api.Roster) Option {
	return func(s *Server) {
		s.activities = cloneRoster(r)
	}
}

// WithTeacher adds a teacher account.
func WithTeacher(username, password string) Option {
	return func(s *Server) {
		h, err := util.HashPassword(password, util.DefaultArgon2idParams())
		if err != nil {
			panic(err)
		}
		s.teachers[username] = h
	}
}

// New starts a Server seeded with the Mergington roster and the default
// teacher account. Call Close when done.
func New(opts ...Option) *Server {
	s := &Server{
		activities: MergingtonRoster(),
		teachers:   make(map[string]util.PasswordHash),
		sessions:   make(map[string]string),
		requests:   make(map[string]int),
		dropNext:   make(map[string]int),
	}
	WithTeacher(TeacherUsername, TeacherPassword)(s)
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.Router())
	return s
}

// Router returns the chi.Router serving the service routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/activities", s.counted("GET /activities", s.listActivities))
	r.Post("/admin/login", s.counted("POST /admin/login", s.login))
	r.Post("/admin/logout", s.counted("POST /admin/logout", s.logout))
	r.Get("/admin/verify", s.counted("GET /admin/verify", s.verify))
	r.Post("/activities/{activity_name}/signup", s.counted("POST /activities/{activity_name}/signup", s.signup))
	r.Delete("/activities/{activity_name}/unregister", s.counted("DELETE /activities/{activity_name}/unregister", s.unregister))
	return r
}

// ---------------------------------------------------------------------------
// Test controls
// ---------------------------------------------------------------------------

// Requests returns how many requests hit route, e.g. "GET /activities".
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// DropNext makes the next n requests to route fail at the transport level:
// the connection is closed without a response.
func (s *Server) DropNext(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropNext[route] = n
}

// Revoke invalidates token as if the service had restarted.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// IssueToken registers a session for username without a login round trip.
func (s *Server) IssueToken(username string) string {
	token, err := util.RandomToken(24)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = username
	return token
}

// ActiveSessions returns the number of tokens the service currently accepts.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Participants returns a copy of the named activity's participant list.
func (s *Server) Participants(activity string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.find(activity); a != nil {
		return slices.Clone(a.Participants)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeMissingField mimics the service's request-validation error shape,
// whose detail is a list rather than a string.
func writeMissingField(w http.ResponseWriter, loc ...string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{
			"loc":  loc,
			"msg":  "field required",
			"type": "value_error.missing",
		}},
	})
}

func (s *Server) counted(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[route]++
		drop := s.dropNext[route] > 0
		if drop {
			s.dropNext[route]--
		}
		s.mu.Unlock()

		if drop {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
					return
				}
			}
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("connection dropped"))
			return
		}
		next(w, r)
	}
}

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	roster := cloneRoster(s.activities)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, roster)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMissingField(w, "body")
		return
	}

	s.mu.Lock()
	hash, ok := s.teachers[req.Username]
	s.mu.Unlock()
	if !ok || !hash.Matches(req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := util.RandomToken(24)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.Lock()
	s.sessions[token] = req.Username
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.LoginResponse{Token: token, Username: req.Username})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(api.TokenHeader)
	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()
	if token == "" || !ok {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Logged out"})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(api.TokenHeader)
	s.mu.Lock()
	username, ok := s.sessions[token]
	s.mu.Unlock()
	if token == "" || !ok {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	writeJSON(w, http.StatusOK, api.VerifyResponse{Username: username})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(a *api.NamedActivity, email string) (string, bool) {
		if slices.Contains(a.Participants, email) {
			return "Student is already signed up", false
		}
		a.Participants = append(a.Participants, email)
		return "Signed up " + email + " for " + a.Name, true
	})
}

func (s *Server) unregister(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(a *api.NamedActivity, email string) (string, bool) {
		i := slices.Index(a.Participants, email)
		if i < 0 {
			return "Student is not signed up for this activity", false
		}
		a.Participants = slices.Delete(a.Participants, i, i+1)
		return "Unregistered " + email + " from " + a.Name, true
	})
}

// mutate runs the shared checks of signup and unregister, in the service's
// order: email present, token valid, activity exists.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, apply func(a *api.NamedActivity, email string) (string, bool)) {
	if !r.URL.Query().Has("email") {
		writeMissingField(w, "query", "email")
		return
	}
	email := r.URL.Query().Get("email")

	name := chi.URLParam(r, "activity_name")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[r.Header.Get(api.TokenHeader)]; !ok {
		writeError(w, http.StatusForbidden, "Admin login required")
		return
	}
	a := s.find(name)
	if a == nil {
		writeError(w, http.StatusNotFound, "Activity not found")
		return
	}
	msg, ok := apply(a, email)
	if !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: msg})
}

// find returns the named activity; the caller must hold s.mu.
func (s *Server) find(name string) *api.NamedActivity {
	for i := range s.activities {
		if s.activities[i].Name == name {
			return &s.activities[i]
		}
	}
	return nil
}

func cloneRoster(r api.Roster) api.Roster {
	out := make(api.Roster, len(r))
	for i, a := range r {
		out[i] = a
		out[i].Participants = slices.Clone(a.Participants)
		if out[i].Participants == nil {
			out[i].Participants = []string{}
		}
	}
	return out
}
