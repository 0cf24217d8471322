package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// APIClient talks to the backend collaborators: the REST API for identity,
// profiles, matches, meetups and threads, and the speech-to-text service.
type APIClient struct {
	httpClient *http.Client
	serverURL  string
	sttURL     string
	sttAPIKey  string
}

// NewAPIClient creates an API client for the given configuration
func NewAPIClient(cfg Config) *APIClient {
	jar, _ := cookiejar.New(nil)
	return &APIClient{
		httpClient: &http.Client{Timeout: 30 * time.Second, Jar: jar},
		serverURL:  strings.TrimRight(cfg.ServerURL, "/"),
		sttURL:     strings.TrimRight(cfg.STTURL, "/"),
		sttAPIKey:  cfg.STTAPIKey,
	}
}

// SetHTTPClient overrides the underlying HTTP client (used in tests)
func (c *APIClient) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// ServerURL returns the configured REST base URL
func (c *APIClient) ServerURL() string {
	return c.serverURL
}

// WebsocketURL returns the push-channel endpoint derived from the server URL
func (c *APIClient) WebsocketURL() (string, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws/messages/"
	return u.String(), nil
}

// doJSON issues a request with an optional JSON body and decodes a JSON
// response into out. Non-2xx responses become ServerError with as much
// server-provided detail as available.
func (c *APIClient) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Op: method, Path: path, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return &NetworkError{Op: method, Path: path, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{Status: resp.StatusCode, Path: path, Detail: errorDetail(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &NetworkError{Op: "decode", Path: path, Err: err}
		}
	}
	return nil
}

// errorDetail extracts a human-readable detail from a server error body
func errorDetail(data []byte) string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	return strings.TrimSpace(string(truncate(data, 200)))
}

// FetchSession issues the authenticated-context read backing session bootstrap
func (c *APIClient) FetchSession(ctx context.Context) (SessionState, error) {
	var state SessionState
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me/", nil, &state); err != nil {
		return SessionState{}, err
	}
	return state, nil
}

// Logout terminates the server session
func (c *APIClient) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout/", nil, nil)
}

// FetchProfile reads one profile by id
func (c *APIClient) FetchProfile(ctx context.Context, profileID int64) (Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/api/profiles/%d/", profileID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// CreateProfile creates a profile from the onboarding draft via multipart
// form fields, matching the backend's create contract
func (c *APIClient) CreateProfile(ctx context.Context, draft OnboardingDraft) (Profile, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := map[string]string{
		"display_name":    draft.DisplayName,
		"pitch_text":      draft.Transcript,
		"event_name":      draft.EventName,
		"tag":             draft.Tag,
		"linkedin_url":    draft.LinkedinURL,
		"pinned_location": draft.PinnedLocation,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return Profile{}, &NetworkError{Op: "POST", Path: "/api/profiles/", Err: err}
		}
	}
	if err := writer.Close(); err != nil {
		return Profile{}, &NetworkError{Op: "POST", Path: "/api/profiles/", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/profiles/", &buf)
	if err != nil {
		return Profile{}, &NetworkError{Op: "POST", Path: "/api/profiles/", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, &NetworkError{Op: "POST", Path: "/api/profiles/", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, &NetworkError{Op: "POST", Path: "/api/profiles/", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Profile{}, &ServerError{Status: resp.StatusCode, Path: "/api/profiles/", Detail: errorDetail(data)}
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return Profile{}, &NetworkError{Op: "decode", Path: "/api/profiles/", Err: err}
	}
	return profile, nil
}

// UpdateProfile applies a partial update to an existing profile
func (c *APIClient) UpdateProfile(ctx context.Context, profileID int64, fields map[string]string) (Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/api/profiles/%d/", profileID)
	if err := c.doJSON(ctx, http.MethodPatch, path, fields, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// FetchMatches reads AI-ranked matches for a profile, filtered by minimum
// score. Ordering and filtering are the server's responsibility.
func (c *APIClient) FetchMatches(ctx context.Context, profileID int64, minScore int) ([]Match, error) {
	var matches []Match
	path := fmt.Sprintf("/api/profiles/%d/matches/?min_score=%d", profileID, minScore)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// FetchMeetups reads the public meetup list
func (c *APIClient) FetchMeetups(ctx context.Context) ([]Meetup, error) {
	var meetups []Meetup
	if err := c.doJSON(ctx, http.MethodGet, "/api/meetups/", nil, &meetups); err != nil {
		return nil, err
	}
	return meetups, nil
}

// SlotCheckResult reports overlapping meetups for a proposed slot
type SlotCheckResult struct {
	OverlapCount int  `json:"overlap_count"`
	Warn         bool `json:"warn"`
}

// SlotCheck asks the server how many meetups overlap a proposed date/time
func (c *APIClient) SlotCheck(ctx context.Context, date, timeOfDay string) (SlotCheckResult, error) {
	var result SlotCheckResult
	path := fmt.Sprintf("/api/meetups/slot_check/?meetup_date=%s&meetup_time=%s",
		url.QueryEscape(date), url.QueryEscape(timeOfDay))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return SlotCheckResult{}, err
	}
	return result, nil
}

// CreateMeetup creates a public meetup
func (c *APIClient) CreateMeetup(ctx context.Context, meetup Meetup) (Meetup, error) {
	body := map[string]string{
		"title":       meetup.Title,
		"place":       meetup.Place,
		"time_text":   meetup.TimeText,
		"meetup_date": meetup.MeetupDate,
		"event_name":  meetup.EventName,
	}
	if meetup.MeetupTime != "" {
		body["meetup_time"] = meetup.MeetupTime
	}
	var created Meetup
	if err := c.doJSON(ctx, http.MethodPost, "/api/meetups/", body, &created); err != nil {
		return Meetup{}, err
	}
	return created, nil
}

// ToggleResult reports the outcome of an attendance toggle
type ToggleResult struct {
	Status  string `json:"status"` // "added" or "removed"
	UpForIt int    `json:"up_for_it_count"`
}

// ToggleUpForIt toggles the owned profile's attendance on a meetup. The
// server is authoritative for the resulting count.
func (c *APIClient) ToggleUpForIt(ctx context.Context, meetupID, profileID int64) (ToggleResult, error) {
	var result ToggleResult
	path := fmt.Sprintf("/api/meetups/%d/up_for_it/", meetupID)
	body := map[string]int64{"profile_id": profileID}
	if err := c.doJSON(ctx, http.MethodPost, path, body, &result); err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}

// FetchMyMeetups reads meetups the owned profile organizes or joined
func (c *APIClient) FetchMyMeetups(ctx context.Context) ([]MyMeetup, error) {
	var meetups []MyMeetup
	if err := c.doJSON(ctx, http.MethodGet, "/api/meetups/my/", nil, &meetups); err != nil {
		return nil, err
	}
	return meetups, nil
}

// FetchThreads reads the thread list for the owned profile
func (c *APIClient) FetchThreads(ctx context.Context) ([]ThreadSummary, error) {
	var threads []ThreadSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/message-threads/", nil, &threads); err != nil {
		return nil, err
	}
	for i := range threads {
		threads[i].UpdatedAtMillis = ParseEventTime(threads[i].UpdatedAt)
	}
	return threads, nil
}

// FetchThreadMessages reads one thread's full message log
func (c *APIClient) FetchThreadMessages(ctx context.Context, threadID int64) ([]Message, error) {
	var messages []Message
	path := fmt.Sprintf("/api/message-threads/%d/messages/", threadID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// StartThread opens (or reuses) a two-party thread with an initial message
// and returns the thread id
func (c *APIClient) StartThread(ctx context.Context, recipientProfileID int64, text string) (int64, error) {
	body := map[string]interface{}{
		"recipient_profile_id": recipientProfileID,
		"text":                 text,
	}
	var result struct {
		ThreadID int64 `json:"thread_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/message-threads/start/", body, &result); err != nil {
		return 0, err
	}
	return result.ThreadID, nil
}

// SendMessage posts a message to an existing thread
func (c *APIClient) SendMessage(ctx context.Context, threadID int64, text string) (Message, error) {
	var message Message
	path := fmt.Sprintf("/api/message-threads/%d/send/", threadID)
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"text": text}, &message); err != nil {
		return Message{}, err
	}
	return message, nil
}

// Transcribe uploads captured audio to the speech-to-text collaborator and
// returns the transcript. Server error detail and hint are surfaced
// verbatim; the call is never retried.
func (c *APIClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", &NetworkError{Op: "POST", Path: "/stt", Err: err}
	}
	if _, err := part.Write(audio); err != nil {
		return "", &NetworkError{Op: "POST", Path: "/stt", Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &NetworkError{Op: "POST", Path: "/stt", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sttURL+"/stt", &buf)
	if err != nil {
		return "", &NetworkError{Op: "POST", Path: "/stt", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.sttAPIKey != "" {
		req.Header.Set("X-API-Key", c.sttAPIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Op: "POST", Path: "/stt", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Op: "POST", Path: "/stt", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
			Hint   string `json:"hint"`
		}
		_ = json.Unmarshal(data, &body)
		detail := body.Detail
		if detail == "" {
			detail = body.Error
		}
		return "", &TranscriptionError{Status: resp.StatusCode, Detail: detail, Hint: body.Hint}
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", &NetworkError{Op: "decode", Path: "/stt", Err: err}
	}
	return result.Text, nil
}
