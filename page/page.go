// Package page ties the session and the roster together into one page
// lifetime: load, the admin menu, the login dialog and the mutations.
package page

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jmcleod/clubdesk/roster"
	"github.com/jmcleod/clubdesk/session"
)

// Dialog is the login dialog's state. Its message is separate from the
// roster banner and stays until the dialog is reopened.
type Dialog struct {
	Open    bool   `json:"open"`
	Message string `json:"message,omitempty"`
}

// Snapshot is everything a renderer needs to draw the page.
type Snapshot struct {
	Controls session.Controls `json:"controls"`
	Roster   roster.View      `json:"roster"`
	Loaded   bool             `json:"loaded"`
	Form     roster.Form      `json:"form"`
	Banner   *roster.Message  `json:"banner,omitempty"`
	MenuOpen bool             `json:"menu_open"`
	Dialog   Dialog           `json:"dialog"`
}

// Page is one page lifetime.
type Page struct {
	session *session.Manager
	roster  *roster.Sync
	logger  *slog.Logger

	mu       sync.Mutex
	menuOpen bool
	dialog   Dialog

	unsubscribe func()
}

// Option configures the Page instance.
type Option func(*Page)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Page) {
		p.logger = logger
	}
}

// New creates a Page over sess and rs.
func New(sess *session.Manager, rs *roster.Sync, opts ...Option) *Page {
	p := &Page{session: sess, roster: rs}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.unsubscribe = sess.Subscribe(p.onSession)
	return p
}

// Close detaches the page from the session and stops banner timers.
func (p *Page) Close() {
	p.unsubscribe()
	p.roster.Close()
}

// Session returns the page's session.
func (p *Page) Session() *session.Manager { return p.session }

// Roster returns the page's roster.
func (p *Page) Roster() *roster.Sync { return p.roster }

// Load restores and verifies the persisted session, then renders the roster
// under the resulting state.
func (p *Page) Load(ctx context.Context) Snapshot {
	p.session.Restore()
	state := p.session.Verify(ctx)
	p.logger.Debug("page loaded", "session", state)
	p.roster.FetchAndRender(ctx)
	return p.Snapshot()
}

// Refresh refetches the roster.
func (p *Page) Refresh(ctx context.Context) Snapshot {
	p.roster.FetchAndRender(ctx)
	return p.Snapshot()
}

// Login submits the login dialog. On success the dialog closes and the
// roster is refetched with removal controls. On failure the reason is shown
// in the dialog and the error is returned.
func (p *Page) Login(ctx context.Context, username, password string) error {
	err := p.session.Login(ctx, username, password)
	if err != nil {
		msg := session.MsgLoginFailed
		var loginErr *session.LoginError
		if errors.As(err, &loginErr) {
			msg = loginErr.Message
		}
		p.mu.Lock()
		p.dialog = Dialog{Open: true, Message: msg}
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.dialog = Dialog{}
	p.mu.Unlock()
	p.roster.FetchAndRender(ctx)
	return nil
}

// Logout closes the menu, ends the session and refetches the roster
// without removal controls.
func (p *Page) Logout(ctx context.Context) {
	p.CloseMenu()
	p.session.Logout(ctx)
	p.roster.FetchAndRender(ctx)
}

// Signup submits the signup form.
func (p *Page) Signup(ctx context.Context, form roster.Form) roster.Message {
	return p.roster.Signup(ctx, form)
}

// Unregister activates a participant's removal control.
func (p *Page) Unregister(ctx context.Context, activity, email string) roster.Message {
	return p.roster.Unregister(ctx, activity, email)
}

// ToggleMenu opens or closes the admin menu.
func (p *Page) ToggleMenu() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.menuOpen = !p.menuOpen
}

// CloseMenu closes the admin menu.
func (p *Page) CloseMenu() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.menuOpen = false
}

// OpenLoginDialog closes the menu and shows an empty login dialog.
func (p *Page) OpenLoginDialog() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.menuOpen = false
	p.dialog = Dialog{Open: true}
}

// CancelLoginDialog hides the login dialog. Its message is kept until the
// dialog is opened again.
func (p *Page) CancelLoginDialog() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialog.Open = false
}

// Snapshot returns the current page state.
func (p *Page) Snapshot() Snapshot {
	controls := p.session.Controls()
	s := Snapshot{
		Controls: controls,
		Roster:   p.roster.View().Gated(controls.Authenticated),
		Loaded:   p.roster.Fetched(),
		Form:     p.roster.Form(),
	}
	if msg, ok := p.roster.Banner().Current(); ok {
		s.Banner = &msg
	}
	p.mu.Lock()
	s.MenuOpen = p.menuOpen
	s.Dialog = p.dialog
	p.mu.Unlock()
	return s
}

func (p *Page) onSession(c session.Controls) {
	if c.Authenticated {
		return
	}
	p.mu.Lock()
	p.menuOpen = false
	p.mu.Unlock()
}
