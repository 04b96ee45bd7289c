package session

// State is the admin authentication state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Controls is the set of interactive elements gated by admin status.
// Renderers read it instead of inspecting the session directly.
type Controls struct {
	Authenticated bool
	Username      string
	// StatusText is "Signed in as <username>", or "" when signed out.
	StatusText string
	ShowLogin  bool
	ShowLogout bool
	// ShowNotice reveals the "teachers must sign in" hint.
	ShowNotice bool
	// FormEnabled gates every input of the signup form.
	FormEnabled bool
}

func controlsFor(authenticated bool, username string) Controls {
	if !authenticated {
		return Controls{ShowLogin: true, ShowNotice: true}
	}
	return Controls{
		Authenticated: true,
		Username:      username,
		StatusText:    "Signed in as " + username,
		ShowLogout:    true,
		FormEnabled:   true,
	}
}
