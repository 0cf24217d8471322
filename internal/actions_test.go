package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/map4expo/expo-session/testutil"
)

func newTestCoordinator(t *testing.T, fb *testutil.FakeBackend) (*Coordinator, *Synchronizer, *StateStore) {
	t.Helper()
	client := newBackendClient(fb)
	store := newTestStore(t)
	sync := NewSynchronizer(client, store)
	boot := NewBootstrapper(client)
	coord := NewCoordinator(client, sync, store, boot, "India AI Summit")
	return coord, sync, store
}

func TestCoordinator_Bootstrap(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, _, _ := newTestCoordinator(t, fb)

	state := coord.Bootstrap(context.Background())
	if !state.Authenticated {
		t.Error("Expected authenticated session")
	}
	if coord.Session().OwnedProfileID != 1 {
		t.Errorf("Expected owned profile 1, got %d", coord.Session().OwnedProfileID)
	}
}

func TestCoordinator_SendMessageRefreshesState(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.SetThreads([]testutil.Thread{
		{ID: 7, LastMessage: "hello", UpdatedAt: testMillis(1000)},
	})
	fb.SetMessages(7, []testutil.Msg{{ID: 1, Thread: 7, Sender: 2, Body: "hello"}})
	coord, sync, _ := newTestCoordinator(t, fb)

	if err := sync.RefreshThreads(context.Background()); err != nil {
		t.Fatalf("RefreshThreads failed: %v", err)
	}
	if err := sync.Select(context.Background(), 7); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	listFetches := fb.ThreadListFetches()
	logFetches := fb.MessageFetches(7)

	if err := coord.SendMessage(context.Background(), "on my way"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	// The write is followed by a log refetch and a thread-list refresh.
	if fb.MessageFetches(7) != logFetches+1 {
		t.Errorf("Expected one post-send log fetch, got %d", fb.MessageFetches(7)-logFetches)
	}
	if fb.ThreadListFetches() != listFetches+1 {
		t.Errorf("Expected one post-send list fetch, got %d", fb.ThreadListFetches()-listFetches)
	}
	messages := sync.Messages()
	if len(messages) != 2 || messages[1].Body != "on my way" {
		t.Errorf("Sent message missing from the refreshed log: %+v", messages)
	}
}

func TestCoordinator_SendMessageRequiresSelection(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, _, _ := newTestCoordinator(t, fb)

	err := coord.SendMessage(context.Background(), "hello")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
	if valErr.Field != "thread" {
		t.Errorf("Expected thread validation, got %q", valErr.Field)
	}
}

func TestCoordinator_SendMessageRejectsEmptyText(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.SetThreads([]testutil.Thread{
		{ID: 7, LastMessage: "hello", UpdatedAt: testMillis(1000)},
	})
	coord, sync, _ := newTestCoordinator(t, fb)
	if err := sync.RefreshThreads(context.Background()); err != nil {
		t.Fatalf("RefreshThreads failed: %v", err)
	}
	if err := sync.Select(context.Background(), 7); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	err := coord.SendMessage(context.Background(), "   \n  ")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
}

func TestCoordinator_StartThreadSelectsIt(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, sync, _ := newTestCoordinator(t, fb)

	threadID, err := coord.StartThread(context.Background(), 2, "hi, loved your pitch")
	if err != nil {
		t.Fatalf("StartThread failed: %v", err)
	}
	if threadID == 0 {
		t.Fatal("Expected a thread id")
	}
	if sync.SelectedThread() != threadID {
		t.Errorf("Expected new thread selected, got %d", sync.SelectedThread())
	}
	messages := sync.Messages()
	if len(messages) != 1 || messages[0].Body != "hi, loved your pitch" {
		t.Errorf("Opening message missing from the log: %+v", messages)
	}
}

func TestCoordinator_CreateProfileValidatesBeforeNetwork(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, _, store := newTestCoordinator(t, fb)

	// Unauthenticated: rejected before any call.
	coord.SetSession(SessionState{Authenticated: false})
	store.SaveDraft(CreateTestDraft())
	if _, err := coord.CreateProfile(context.Background()); err == nil {
		t.Fatal("Expected rejection while unauthenticated")
	}

	// Missing transcript: rejected before any call.
	coord.SetSession(SessionState{Authenticated: true})
	draft := CreateTestDraft()
	draft.Transcript = ""
	store.SaveDraft(draft)
	_, err := coord.CreateProfile(context.Background())
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
	if valErr.Field != "transcript" {
		t.Errorf("Expected transcript validation, got %q", valErr.Field)
	}

	// Missing name: rejected before any call.
	draft = CreateTestDraft()
	draft.DisplayName = ""
	store.SaveDraft(draft)
	if _, err := coord.CreateProfile(context.Background()); err == nil {
		t.Fatal("Expected rejection for empty name")
	}

	if fb.ProfileCreates() != 0 {
		t.Errorf("Validation failures must not reach the backend, saw %d creates", fb.ProfileCreates())
	}
}

func TestCoordinator_CreateProfileAdoptsIDAndClearsDraft(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, _, store := newTestCoordinator(t, fb)
	coord.SetSession(SessionState{Authenticated: true, Email: "ada@example.com"})
	store.SaveDraft(CreateTestDraft())

	profile, err := coord.CreateProfile(context.Background())
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if profile.ID != 42 {
		t.Errorf("Expected profile id 42, got %d", profile.ID)
	}
	if coord.Session().OwnedProfileID != 42 {
		t.Errorf("Session should adopt the new profile id, got %d", coord.Session().OwnedProfileID)
	}
	if coord.Session().Email != "ada@example.com" {
		t.Error("Session identity fields should survive profile adoption")
	}
	if !store.LoadDraft().IsEmpty() {
		t.Error("Draft should be cleared after successful creation")
	}
}

func TestCoordinator_CreateProfileDefaultsEventName(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, _, store := newTestCoordinator(t, fb)
	coord.SetSession(SessionState{Authenticated: true})

	draft := CreateTestDraft()
	draft.EventName = ""
	store.SaveDraft(draft)

	profile, err := coord.CreateProfile(context.Background())
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if profile.EventName != "India AI Summit" {
		t.Errorf("Expected configured event name, got %q", profile.EventName)
	}
}

func TestCoordinator_ToggleAttendanceRequiresProfile(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, _, _ := newTestCoordinator(t, fb)
	coord.SetSession(SessionState{Authenticated: true})

	_, _, _, err := coord.ToggleAttendance(context.Background(), 5)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
}

func TestCoordinator_ToggleAttendanceRefreshesBothLists(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	fb.SetMeetupsJSON(
		`[{"id": 5, "title": "Coffee at Hall 4", "up_for_it_count": 2}]`,
		`[{"id": 5, "title": "Coffee at Hall 4", "role": "attendee", "up_for_it_count": 2}]`,
	)
	coord, _, _ := newTestCoordinator(t, fb)
	coord.SetSession(SessionState{Authenticated: true, OwnedProfileID: 1})

	result, meetups, mine, err := coord.ToggleAttendance(context.Background(), 5)
	if err != nil {
		t.Fatalf("ToggleAttendance failed: %v", err)
	}
	if result.Status != "added" {
		t.Errorf("Expected status added, got %q", result.Status)
	}
	if len(meetups) != 1 || meetups[0].Title != "Coffee at Hall 4" {
		t.Errorf("Public list not refreshed: %+v", meetups)
	}
	if len(mine) != 1 || mine[0].Role != "attendee" {
		t.Errorf("Owned list not refreshed: %+v", mine)
	}
}

func TestCoordinator_Logout(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, _, _ := newTestCoordinator(t, fb)
	coord.Bootstrap(context.Background())
	if !coord.Session().Authenticated {
		t.Fatal("Expected authenticated session before logout")
	}

	fallbackURL, err := coord.Logout(context.Background())
	if err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if fallbackURL != "" {
		t.Errorf("Successful logout needs no fallback URL, got %q", fallbackURL)
	}
	if coord.Session().Authenticated {
		t.Error("Session should be unauthenticated after logout")
	}
}

func TestCoordinator_LogoutFallbackURLOnFailure(t *testing.T) {
	client := NewAPIClient(Config{ServerURL: "http://127.0.0.1:1"})
	store := newTestStore(t)
	sync := NewSynchronizer(client, store)
	coord := NewCoordinator(client, sync, store, NewBootstrapper(client), "India AI Summit")
	coord.SetSession(SessionState{Authenticated: true, OwnedProfileID: 1})

	fallbackURL, err := coord.Logout(context.Background())
	if err == nil {
		t.Fatal("Expected error from unreachable server")
	}
	if fallbackURL == "" {
		t.Error("Failed logout should return the browser fallback URL")
	}
	if coord.Session().Authenticated {
		t.Error("Local session is cleared even when the call fails")
	}
}

func TestCoordinator_UpdateProfileRequiresOwnership(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	coord, _, _ := newTestCoordinator(t, fb)
	coord.SetSession(SessionState{Authenticated: true})

	_, err := coord.UpdateProfile(context.Background(), map[string]string{"tag": "Investor"})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
}
