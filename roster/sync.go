// Package roster keeps a rendered view of the activity roster in step with
// the remote service and mediates the signup and unregister mutations.
//
// The roster is never edited locally. Every successful mutation is followed
// by one full refetch, and every fetch rebuilds the whole view.
package roster

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jmcleod/clubdesk/api"
)

// User-visible texts produced by mutations.
const (
	MsgLoginRequired    = "Teacher login required to register students."
	MsgGenericError     = "An error occurred"
	MsgSignupFailed     = "Failed to sign up. Please try again."
	MsgUnregisterFailed = "Failed to unregister. Please try again."
)

// Remote is the part of the service the Sync talks to. *api.Client
// satisfies it.
type Remote interface {
	Activities(ctx context.Context) (api.Roster, error)
	Signup(ctx context.Context, token, activity, email string) (api.MessageResponse, error)
	Unregister(ctx context.Context, token, activity, email string) (api.MessageResponse, error)
}

// Authorizer answers the single authorization question. *session.Manager
// satisfies it.
type Authorizer interface {
	Authenticated() bool
	Token() string
}

// Form is the signup form's input.
type Form struct {
	Activity string `json:"activity"`
	Email    string `json:"email"`
}

// Sync owns the rendered roster, the signup form and the message banner.
type Sync struct {
	remote Remote
	auth   Authorizer
	banner *Banner
	logger *slog.Logger

	mu      sync.RWMutex
	view    View
	form    Form
	fetches int
}

// Option configures the Sync instance.
type Option func(*syncConfig)

type syncConfig struct {
	logger *slog.Logger
	after  AfterFunc
	ttl    time.Duration
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *syncConfig) {
		c.logger = logger
	}
}

// WithAfterFunc replaces the scheduler used for banner dismissal.
func WithAfterFunc(after AfterFunc) Option {
	return func(c *syncConfig) {
		c.after = after
	}
}

// WithDismissAfter overrides DismissAfter.
func WithDismissAfter(d time.Duration) Option {
	return func(c *syncConfig) {
		c.ttl = d
	}
}

// New creates a Sync with an empty view. Call FetchAndRender to populate it.
func New(remote Remote, auth Authorizer, opts ...Option) *Sync {
	cfg := syncConfig{ttl: DismissAfter}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Sync{
		remote: remote,
		auth:   auth,
		banner: NewBanner(cfg.after, cfg.ttl),
		logger: cfg.logger,
	}
}

// View returns the current rendering, with removal controls gated on the
// viewer's authentication state at the time of the call.
func (s *Sync) View() View {
	s.mu.RLock()
	v := s.view
	s.mu.RUnlock()
	return v.Gated(s.auth.Authenticated())
}

// Form returns the signup form's current input.
func (s *Sync) Form() Form {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form
}

// Fetched reports whether at least one fetch has completed, successfully or not.
func (s *Sync) Fetched() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetches > 0
}

// Banner returns the transient message banner.
func (s *Sync) Banner() *Banner {
	return s.banner
}

// Close cancels pending banner dismissals.
func (s *Sync) Close() {
	s.banner.Stop()
}

// FetchAndRender retrieves the full roster and replaces the view with it.
// Removal controls are rendered only if the viewer is authenticated at the
// time the response arrives. A failed fetch replaces the list with
// MsgLoadFailed; it is logged and not retried.
func (s *Sync) FetchAndRender(ctx context.Context) View {
	roster, err := s.remote.Activities(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if err != nil {
		s.logger.Error("fetching activities", "err", err)
		s.view = failedView(slices.Clone(s.view.Options))
		return s.view
	}
	s.view = Render(roster, s.auth.Authenticated())
	return s.view
}

// Signup registers form.Email for form.Activity. Without a signed-in teacher
// it fails locally and sends nothing. On success the form is cleared and the
// roster refetched; on failure the form is kept.
func (s *Sync) Signup(ctx context.Context, form Form) Message {
	s.mu.Lock()
	s.form = form
	s.mu.Unlock()

	if !s.auth.Authenticated() {
		return s.banner.Show(KindError, MsgLoginRequired)
	}

	resp, err := s.remote.Signup(ctx, s.auth.Token(), form.Activity, form.Email)
	if err != nil {
		return s.fail(err, "signing up", MsgSignupFailed)
	}

	msg := s.banner.Show(KindSuccess, resp.Message)
	s.mu.Lock()
	s.form = Form{}
	s.mu.Unlock()
	s.FetchAndRender(ctx)
	return msg
}

// Unregister removes email from activity. There is no local authorization
// check: the removal control is only rendered for a signed-in teacher and
// the service rejects anyone else.
func (s *Sync) Unregister(ctx context.Context, activity, email string) Message {
	resp, err := s.remote.Unregister(ctx, s.auth.Token(), activity, email)
	if err != nil {
		return s.fail(err, "unregistering", MsgUnregisterFailed)
	}

	msg := s.banner.Show(KindSuccess, resp.Message)
	s.FetchAndRender(ctx)
	return msg
}

// fail turns a mutation error into the banner message: the service's detail
// for a refused request, or unreachable for a transport failure.
func (s *Sync) fail(err error, op, unreachable string) Message {
	if api.IsTransport(err) {
		s.logger.Error(op, "err", err)
		return s.banner.Show(KindError, unreachable)
	}
	detail := api.Detail(err)
	if detail == "" {
		detail = MsgGenericError
	}
	return s.banner.Show(KindError, detail)
}
