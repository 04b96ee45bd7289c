// Package session owns the admin authentication state of a running client:
// the token, the canonical username and whether the service has confirmed
// them. Persisted storage is kept as a mirror and is only touched at the
// explicit load and save points below.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/clubdesk/api"
	"github.com/jmcleod/clubdesk/storage"
)

// Authenticator is the part of the remote service the Manager talks to.
// *api.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
	Verify(ctx context.Context, token string) (api.VerifyResponse, error)
	Logout(ctx context.Context, token string) error
}

// Manager is the single source of truth for whether this client is a
// signed-in teacher. The token is held sealed in a memguard Enclave and only
// opened while a request is being built.
type Manager struct {
	remote Authenticator
	store  storage.Store
	logger *slog.Logger

	mu            sync.RWMutex
	token         *memguard.Enclave
	username      string
	authenticated bool

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(Controls)
}

// Option configures the Manager instance.
type Option func(*Manager)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager in the unauthenticated state. Call Restore and then
// Verify to pick up a session persisted by an earlier run.
func New(remote Authenticator, store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		remote: remote,
		store:  store,
		subs:   make(map[int]func(Controls)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Authenticated is the one authorization predicate: renderers consult it to
// decide whether mutation controls exist, and mutating calls consult it
// before touching the network.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authenticated
}

// State returns the current authentication state.
func (m *Manager) State() State {
	if m.Authenticated() {
		return StateAuthenticated
	}
	return StateUnauthenticated
}

// Username returns the held username, which may be a restored but not yet
// verified value.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

// HasToken reports whether a token is held, verified or not.
func (m *Manager) HasToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != nil
}

// Token returns the held token, or "" if there is none. The returned string
// is an ordinary heap copy; only the held token is sealed.
func (m *Manager) Token() string {
	m.mu.RLock()
	enclave := m.token
	m.mu.RUnlock()
	return m.open(enclave)
}

// Controls returns the admin-gated UI state for the current session.
func (m *Manager) Controls() Controls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return controlsFor(m.authenticated, m.username)
}

// Subscribe registers fn to be called synchronously after every session
// transition. The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Controls)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

// Restore loads the token and username persisted by an earlier run. It never
// marks the session authenticated; only Verify does that. An already
// authenticated session is left as it is. Storage read failures are logged
// and treated as an empty store.
func (m *Manager) Restore() {
	if m.Authenticated() {
		return
	}
	token := m.load(storage.KeyAdminToken)
	username := m.load(storage.KeyAdminUsername)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authenticated {
		return
	}
	m.token = seal(token)
	m.username = username
}

// Verify checks the held token with the service, once. With no token it
// returns immediately without a network call. Success marks the session
// authenticated under the service's canonical username; any failure clears
// the session from memory and storage. There is no retry.
func (m *Manager) Verify(ctx context.Context) State {
	m.mu.RLock()
	enclave := m.token
	m.mu.RUnlock()

	if enclave == nil {
		m.notify()
		return StateUnauthenticated
	}
	token := m.open(enclave)

	resp, err := m.remote.Verify(ctx, token)
	if err != nil {
		if api.IsTransport(err) {
			m.logger.Error("verifying admin session", "err", err)
		} else {
			m.logger.Info("persisted admin session rejected", "err", err)
		}
		m.clearIf(enclave)
		return m.State()
	}

	m.setIf(enclave, token, resp.Username)
	return m.State()
}

// Login exchanges credentials for a new session. On failure the session is
// left untouched and a *LoginError carries the reason to show the user.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	resp, err := m.remote.Login(ctx, username, password)
	if err != nil {
		if api.IsTransport(err) {
			m.logger.Error("logging in", "err", err)
			return &LoginError{Message: MsgLoginUnreachable, Err: err}
		}
		msg := api.Detail(err)
		if msg == "" {
			msg = MsgLoginFailed
		}
		return &LoginError{Message: msg, Err: err}
	}
	if resp.Token == "" {
		m.logger.Error("logging in", "err", errNoToken)
		return &LoginError{Message: MsgLoginFailed, Err: errNoToken}
	}

	m.set(resp.Token, resp.Username)
	m.logger.Info("admin signed in", "username", resp.Username)
	return nil
}

// Logout notifies the service on a best-effort basis, then always clears the
// local session, whatever the service said.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.remote.Logout(ctx, m.Token()); err != nil {
		m.logger.Error("logging out", "err", err)
	}
	m.clear()
}

// set marks the session authenticated and persists it.
func (m *Manager) set(token, username string) {
	m.mu.Lock()
	m.token = seal(token)
	m.username = username
	m.authenticated = m.token != nil
	m.mu.Unlock()

	m.save(token, username)
	m.notify()
}

// setIf applies a verify success only if the verified token is still the
// held one; a login that finished meanwhile wins.
func (m *Manager) setIf(verified *memguard.Enclave, token, username string) {
	m.mu.RLock()
	current := m.token
	m.mu.RUnlock()
	if current != verified {
		return
	}
	m.set(token, username)
}

// clear drops the session from memory and storage.
func (m *Manager) clear() {
	m.mu.Lock()
	m.token = nil
	m.username = ""
	m.authenticated = false
	m.mu.Unlock()

	m.erase()
	m.notify()
}

func (m *Manager) clearIf(rejected *memguard.Enclave) {
	m.mu.RLock()
	current := m.token
	m.mu.RUnlock()
	if current != rejected {
		return
	}
	m.clear()
}

func (m *Manager) notify() {
	c := m.Controls()
	m.subMu.Lock()
	subs := make([]func(Controls), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

// ---------------------------------------------------------------------------
// Storage boundary
// ---------------------------------------------------------------------------

func (m *Manager) load(key string) string {
	v, err := m.store.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Error("reading persisted session", "key", key, "err", err)
		}
		return ""
	}
	return v
}

// save mirrors the session to storage. Write failures are logged; the
// in-memory session stays authoritative.
func (m *Manager) save(token, username string) {
	err := m.store.Batch(func(tx storage.BatchTx) error {
		if err := tx.Set(storage.KeyAdminToken, token); err != nil {
			return err
		}
		return tx.Set(storage.KeyAdminUsername, username)
	})
	if err != nil {
		m.logger.Error("persisting admin session", "err", err)
	}
}

func (m *Manager) erase() {
	err := m.store.Batch(func(tx storage.BatchTx) error {
		if err := tx.Remove(storage.KeyAdminToken); err != nil {
			return err
		}
		return tx.Remove(storage.KeyAdminUsername)
	})
	if err != nil {
		m.logger.Error("erasing persisted admin session", "err", err)
	}
}

// ---------------------------------------------------------------------------
// Token sealing
// ---------------------------------------------------------------------------

// seal moves token into an encrypted enclave. An empty token seals to nil,
// which is how "no token" is represented.
func seal(token string) *memguard.Enclave {
	if token == "" {
		return nil
	}
	return memguard.NewEnclave([]byte(token))
}

func (m *Manager) open(enclave *memguard.Enclave) string {
	if enclave == nil {
		return ""
	}
	buf, err := enclave.Open()
	if err != nil {
		m.logger.Error("opening token enclave", "err", err)
		return ""
	}
	defer buf.Destroy()
	return string(buf.Bytes())
}
