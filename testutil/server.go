package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// Msg mirrors the backend's message wire shape
type Msg struct {
	ID        int64  `json:"id"`
	Thread    int64  `json:"thread"`
	Sender    int64  `json:"sender"`
	Role      string `json:"sender_role,omitempty"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Thread mirrors the backend's thread-list wire shape
type Thread struct {
	ID           int64             `json:"id"`
	Participants []map[string]any  `json:"participants"`
	LastMessage  string            `json:"last_message"`
	UpdatedAt    string            `json:"updated_at"`
}

// FakeBackend is an httptest server implementing the backend collaborator
// contracts the client depends on. Tests mutate its fields to shape
// responses and read its counters to assert call patterns. It carries no
// dependency on the client packages; fixtures are wire-shaped.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	sessionJSON  json.RawMessage
	threads      []Thread
	messages     map[int64][]Msg
	meetupsJSON  json.RawMessage
	myJSON       json.RawMessage
	matchesJSON  json.RawMessage
	upForItJSON  json.RawMessage
	nextThreadID int64
	nextMsgID    int64

	threadListFetches int
	messageFetches    map[int64]int
	profileCreates    int

	beforeMessages func(threadID int64)
	failMessages   bool
	failThreads    bool
}

// NewFakeBackend starts a fake backend with an authenticated session owning
// profile 1
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		sessionJSON: json.RawMessage(`{
			"authenticated": true,
			"email": "ada@example.com",
			"name": "Ada",
			"profile_id": 1,
			"login_url": "/accounts/google/login/",
			"logout_url": "/accounts/logout/",
			"human_verified": true
		}`),
		messages:       map[int64][]Msg{},
		messageFetches: map[int64]int{},
		nextThreadID:   100,
		nextMsgID:      1000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me/", fb.handleAuthMe)
	mux.HandleFunc("POST /api/auth/logout/", fb.handleLogout)
	mux.HandleFunc("GET /api/message-threads/", fb.handleThreads)
	mux.HandleFunc("GET /api/message-threads/{id}/messages/", fb.handleMessages)
	mux.HandleFunc("POST /api/message-threads/start/{$}", fb.handleStart)
	mux.HandleFunc("POST /api/message-threads/{id}/send/", fb.handleSend)
	mux.HandleFunc("GET /api/meetups/", fb.handleMeetups)
	mux.HandleFunc("GET /api/meetups/my/", fb.handleMyMeetups)
	mux.HandleFunc("POST /api/meetups/{id}/up_for_it/", fb.handleUpForIt)
	mux.HandleFunc("GET /api/profiles/{id}/matches/", fb.handleMatches)
	mux.HandleFunc("POST /api/profiles/", fb.handleCreateProfile)

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the backend base URL
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// SetSessionJSON replaces the identity endpoint's response body
func (fb *FakeBackend) SetSessionJSON(raw string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.sessionJSON = json.RawMessage(raw)
}

// SetThreads replaces the thread-list snapshot
func (fb *FakeBackend) SetThreads(threads []Thread) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.threads = threads
}

// SetMessages replaces one thread's message log
func (fb *FakeBackend) SetMessages(threadID int64, messages []Msg) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.messages[threadID] = messages
}

// SetMeetupsJSON replaces the public and owned meetup list bodies
func (fb *FakeBackend) SetMeetupsJSON(public, mine string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.meetupsJSON = json.RawMessage(public)
	fb.myJSON = json.RawMessage(mine)
}

// SetMatchesJSON replaces the match list body
func (fb *FakeBackend) SetMatchesJSON(raw string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.matchesJSON = json.RawMessage(raw)
}

// SetUpForItJSON replaces the attendance-toggle response body
func (fb *FakeBackend) SetUpForItJSON(raw string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.upForItJSON = json.RawMessage(raw)
}

// SetBeforeMessages installs a hook that runs before a message-log fetch
// responds; tests use it to hold a fetch open and provoke selection races.
// Pass nil to remove it.
func (fb *FakeBackend) SetBeforeMessages(hook func(threadID int64)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.beforeMessages = hook
}

// SetFailMessages makes message-log fetches return HTTP 500
func (fb *FakeBackend) SetFailMessages(fail bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failMessages = fail
}

// SetFailThreads makes thread-list fetches return HTTP 500
func (fb *FakeBackend) SetFailThreads(fail bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failThreads = fail
}

// ThreadListFetches returns how many thread-list reads have been served
func (fb *FakeBackend) ThreadListFetches() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.threadListFetches
}

// MessageFetches returns how many message-log reads a thread has served
func (fb *FakeBackend) MessageFetches(threadID int64) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.messageFetches[threadID]
}

// ProfileCreates returns how many profile-create calls were served
func (fb *FakeBackend) ProfileCreates() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.profileCreates
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch body := v.(type) {
	case json.RawMessage:
		if body == nil {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_, _ = w.Write(body)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func (fb *FakeBackend) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	body := fb.sessionJSON
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (fb *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (fb *FakeBackend) handleThreads(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.threadListFetches++
	threads := fb.threads
	fail := fb.failThreads
	fb.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "thread list unavailable"})
		return
	}
	if threads == nil {
		threads = []Thread{}
	}
	writeJSON(w, http.StatusOK, threads)
}

func (fb *FakeBackend) handleMessages(w http.ResponseWriter, r *http.Request) {
	threadID := pathID(r)

	fb.mu.Lock()
	fb.messageFetches[threadID]++
	hook := fb.beforeMessages
	fail := fb.failMessages
	fb.mu.Unlock()

	if hook != nil {
		hook(threadID)
	}
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "messages unavailable"})
		return
	}

	fb.mu.Lock()
	messages := fb.messages[threadID]
	fb.mu.Unlock()
	if messages == nil {
		messages = []Msg{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (fb *FakeBackend) handleStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RecipientProfileID int64  `json:"recipient_profile_id"`
		Text               string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recipient_profile_id and text are required"})
		return
	}

	fb.mu.Lock()
	fb.nextThreadID++
	threadID := fb.nextThreadID
	fb.nextMsgID++
	fb.messages[threadID] = []Msg{{ID: fb.nextMsgID, Thread: threadID, Sender: 1, Body: body.Text}}
	fb.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]int64{"thread_id": threadID})
}

func (fb *FakeBackend) handleSend(w http.ResponseWriter, r *http.Request) {
	threadID := pathID(r)
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sender_profile_id and text are required"})
		return
	}

	fb.mu.Lock()
	fb.nextMsgID++
	msg := Msg{ID: fb.nextMsgID, Thread: threadID, Sender: 1, Body: body.Text}
	fb.messages[threadID] = append(fb.messages[threadID], msg)
	fb.mu.Unlock()

	writeJSON(w, http.StatusCreated, msg)
}

func (fb *FakeBackend) handleMeetups(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	body := fb.meetupsJSON
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (fb *FakeBackend) handleMyMeetups(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	body := fb.myJSON
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (fb *FakeBackend) handleUpForIt(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	body := fb.upForItJSON
	fb.mu.Unlock()
	if body == nil {
		body = json.RawMessage(`{"status": "added", "up_for_it_count": 1}`)
	}
	writeJSON(w, http.StatusOK, body)
}

func (fb *FakeBackend) handleMatches(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	body := fb.matchesJSON
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (fb *FakeBackend) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form required"})
		return
	}
	fb.mu.Lock()
	fb.profileCreates++
	fb.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":           42,
		"display_name": r.FormValue("display_name"),
		"pitch_text":   r.FormValue("pitch_text"),
		"event_name":   r.FormValue("event_name"),
		"tag":          r.FormValue("tag"),
	})
}
