package internal

import (
	"context"
	"strings"
)

// Coordinator orchestrates multi-step user actions: each one is a fixed
// sequence of a write followed by refreshes of the dependent read state,
// with no partial commit. It owns the current SessionState, which is only
// ever replaced wholesale.
type Coordinator struct {
	api       *APIClient
	sync      *Synchronizer
	store     *StateStore
	boot      *Bootstrapper
	eventName string

	session SessionState
}

// NewCoordinator creates an action coordinator
func NewCoordinator(api *APIClient, sync *Synchronizer, store *StateStore, boot *Bootstrapper, eventName string) *Coordinator {
	return &Coordinator{api: api, sync: sync, store: store, boot: boot, eventName: eventName}
}

// WebsocketURL returns the push-channel endpoint for the configured backend
func (c *Coordinator) WebsocketURL() (string, error) {
	return c.api.WebsocketURL()
}

// Session returns the current session state
func (c *Coordinator) Session() SessionState {
	return c.session
}

// SetSession replaces the session state wholesale
func (c *Coordinator) SetSession(state SessionState) {
	c.session = state
}

// Bootstrap resolves the session before any profile-scoped work
func (c *Coordinator) Bootstrap(ctx context.Context) SessionState {
	c.session = c.boot.Resolve(ctx)
	return c.session
}

// SendMessage posts text to the selected thread, then refetches that
// thread's log and the thread list so local truth matches the server. The
// push channel may deliver the same message again; dedup by id makes the
// duplicate application a no-op.
func (c *Coordinator) SendMessage(ctx context.Context, text string) error {
	threadID := c.sync.SelectedThread()
	if threadID == 0 {
		return &ValidationError{Field: "thread", Reason: "no thread selected"}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Field: "text", Reason: "message text must not be empty"}
	}

	if _, err := c.api.SendMessage(ctx, threadID, text); err != nil {
		return err
	}
	if err := c.sync.Select(ctx, threadID); err != nil {
		LogWarn("Post-send log refresh failed: %v", err)
	}
	if err := c.sync.RefreshThreads(ctx); err != nil {
		LogWarn("Post-send thread list refresh failed: %v", err)
	}
	return nil
}

// StartThread opens a thread to a recipient with initial text, selects it,
// and fetches its log. Returns the thread id.
func (c *Coordinator) StartThread(ctx context.Context, recipientProfileID int64, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, &ValidationError{Field: "text", Reason: "initial message text must not be empty"}
	}
	if recipientProfileID == 0 {
		return 0, &ValidationError{Field: "recipient", Reason: "recipient profile id is required"}
	}

	threadID, err := c.api.StartThread(ctx, recipientProfileID, text)
	if err != nil {
		return 0, err
	}
	if err := c.sync.Select(ctx, threadID); err != nil {
		LogWarn("Log fetch for new thread %d failed: %v", threadID, err)
	}
	if err := c.sync.RefreshThreads(ctx); err != nil {
		LogWarn("Thread list refresh after start failed: %v", err)
	}
	return threadID, nil
}

// CreateProfile validates the onboarding draft locally, creates the profile,
// adopts the returned profile id into a fresh session state, and clears the
// draft. Preconditions are checked before any network call.
func (c *Coordinator) CreateProfile(ctx context.Context) (Profile, error) {
	if !c.session.Authenticated {
		return Profile{}, &ValidationError{Field: "session", Reason: "sign in before creating a profile"}
	}
	draft := c.store.LoadDraft()
	if strings.TrimSpace(draft.DisplayName) == "" {
		return Profile{}, &ValidationError{Field: "display_name", Reason: "name must not be empty"}
	}
	if strings.TrimSpace(draft.Transcript) == "" {
		return Profile{}, &ValidationError{Field: "transcript", Reason: "record a voice pitch first"}
	}
	if draft.EventName == "" {
		draft.EventName = c.eventName
	}

	profile, err := c.api.CreateProfile(ctx, draft)
	if err != nil {
		return Profile{}, err
	}

	next := c.session
	next.OwnedProfileID = profile.ID
	c.session = next
	c.store.ClearDraft()
	return profile, nil
}

// UpdateProfile applies a partial update to the owned profile
func (c *Coordinator) UpdateProfile(ctx context.Context, fields map[string]string) (Profile, error) {
	if c.session.OwnedProfileID == 0 {
		return Profile{}, &ValidationError{Field: "profile", Reason: "no owned profile"}
	}
	return c.api.UpdateProfile(ctx, c.session.OwnedProfileID, fields)
}

// ToggleAttendance toggles the owned profile's attendance on a meetup and
// refreshes both the public and the owned meetup lists, since either may
// have changed.
func (c *Coordinator) ToggleAttendance(ctx context.Context, meetupID int64) (ToggleResult, []Meetup, []MyMeetup, error) {
	if c.session.OwnedProfileID == 0 {
		return ToggleResult{}, nil, nil, &ValidationError{Field: "profile", Reason: "create a profile before joining meetups"}
	}

	result, err := c.api.ToggleUpForIt(ctx, meetupID, c.session.OwnedProfileID)
	if err != nil {
		return ToggleResult{}, nil, nil, err
	}

	meetups, err := c.api.FetchMeetups(ctx)
	if err != nil {
		LogWarn("Meetup list refresh after toggle failed: %v", err)
	}
	mine, err := c.api.FetchMyMeetups(ctx)
	if err != nil {
		LogWarn("Owned meetup refresh after toggle failed: %v", err)
	}
	return result, meetups, mine, nil
}

// Logout ends the server session and replaces the local session with the
// unauthenticated fallback. When the call fails the constructed logout URL
// is returned so the user can finish in a browser.
func (c *Coordinator) Logout(ctx context.Context) (fallbackURL string, err error) {
	err = c.api.Logout(ctx)
	fallback := c.boot.FallbackState()
	if err != nil {
		LogWarn("Logout call failed: %v", err)
		c.session = fallback
		return fallback.LogoutURL, err
	}
	c.session = fallback
	return "", nil
}
