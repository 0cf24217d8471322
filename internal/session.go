package internal

import (
	"context"
	"net/url"
)

// Bootstrapper resolves authentication state and, if authenticated, the
// owned profile identity. It must complete (or fall back) before any
// profile-scoped fetch is attempted.
type Bootstrapper struct {
	api *APIClient
}

// NewBootstrapper creates a session bootstrapper backed by the REST API
func NewBootstrapper(api *APIClient) *Bootstrapper {
	return &Bootstrapper{api: api}
}

// Resolve issues one authenticated-context read. On any network or decode
// failure it returns the deterministic unauthenticated fallback so callers
// are never blocked. OwnedProfileID is taken verbatim from the response;
// it is never inferred from other endpoints.
func (b *Bootstrapper) Resolve(ctx context.Context) SessionState {
	state, err := b.api.FetchSession(ctx)
	if err != nil {
		LogWarn("Session bootstrap failed, using unauthenticated fallback: %v", err)
		return b.FallbackState()
	}
	if state.LoginURL == "" {
		state.LoginURL = b.constructLoginURL()
	}
	return state
}

// FallbackState returns the unauthenticated state with locally constructed
// login and logout URLs
func (b *Bootstrapper) FallbackState() SessionState {
	return SessionState{
		Authenticated: false,
		LoginURL:      b.constructLoginURL(),
		LogoutURL:     b.constructLogoutURL(),
	}
}

func (b *Bootstrapper) constructLoginURL() string {
	next := url.QueryEscape(b.api.ServerURL())
	return b.api.ServerURL() + "/accounts/google/login/?process=login&prompt=select_account&next=" + next
}

func (b *Bootstrapper) constructLogoutURL() string {
	next := url.QueryEscape(b.api.ServerURL())
	return b.api.ServerURL() + "/accounts/logout/?next=" + next
}
