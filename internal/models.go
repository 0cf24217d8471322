package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// SessionState represents the authenticated identity resolved at startup.
// It is replaced wholesale on login/logout transitions, never partially mutated.
type SessionState struct {
	Authenticated  bool   `json:"authenticated"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	OwnedProfileID int64  `json:"profile_id,omitempty"`
	LoginURL       string `json:"login_url"`
	LogoutURL      string `json:"logout_url,omitempty"`
	HumanVerified  bool   `json:"human_verified"`
}

// Participant represents one member of a message thread
type Participant struct {
	ID  int64  `json:"id"`
	Tag string `json:"tag"`
}

// ThreadSummary represents one conversation as listed by the server
type ThreadSummary struct {
	ID           int64         `json:"id"`
	Participants []Participant `json:"participants"`
	LastMessage  string        `json:"last_message"`
	UpdatedAt    string        `json:"updated_at"`

	// UpdatedAtMillis is the parsed form of UpdatedAt, used for the
	// monotonic merge and the unread watermark comparison.
	UpdatedAtMillis int64 `json:"-"`
}

// Message represents one chat message
type Message struct {
	ID         int64  `json:"id"`
	ThreadID   int64  `json:"thread"`
	SenderID   int64  `json:"sender"`
	SenderRole string `json:"sender_role,omitempty"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}

// ThreadDelta represents one inbound push-channel frame: new activity on a
// thread, optionally carrying the message itself.
type ThreadDelta struct {
	ThreadID  int64    `json:"thread_id"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Message   *Message `json:"message,omitempty"`

	UpdatedAtMillis int64 `json:"-"`
}

// Profile represents an attendee profile
type Profile struct {
	ID             int64  `json:"id"`
	DisplayName    string `json:"display_name"`
	EventName      string `json:"event_name"`
	PitchText      string `json:"pitch_text"`
	Tag            string `json:"tag"`
	LinkedinURL    string `json:"linkedin_url"`
	PinnedLocation string `json:"pinned_location"`
	IsAnonymous    bool   `json:"is_anonymous"`
	ProfilePicURL  string `json:"profile_pic_url"`
	CreatedAt      string `json:"created_at"`
}

// Match represents one AI-ranked match candidate for the owned profile
type Match struct {
	ProfileID      int64   `json:"profile_id"`
	Tag            string  `json:"tag"`
	IsAnonymous    bool    `json:"is_anonymous"`
	LinkedinURL    string  `json:"linkedin_url"`
	PinnedLocation string  `json:"pinned_location"`
	ProfilePicURL  string  `json:"profile_pic_url"`
	PitchText      string  `json:"pitch_text"`
	Score          float64 `json:"match_score"`
	Reasoning      string  `json:"reasoning"`
}

// Meetup represents a public meetup listing
type Meetup struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Place      string `json:"place"`
	TimeText   string `json:"time_text"`
	MeetupDate string `json:"meetup_date"`
	MeetupTime string `json:"meetup_time"`
	EventName  string `json:"event_name"`
	UpForIt    int    `json:"up_for_it_count"`
	CreatedAt  string `json:"created_at"`
}

// MyMeetup represents a meetup the owned profile organizes or joined
type MyMeetup struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Place      string `json:"place"`
	TimeText   string `json:"time_text"`
	MeetupDate string `json:"meetup_date"`
	MeetupTime string `json:"meetup_time"`
	Role       string `json:"role"`
	UpForIt    int    `json:"up_for_it_count"`
}

// OnboardingDraft holds unsaved profile-creation fields. It persists across
// runs until profile creation succeeds.
type OnboardingDraft struct {
	DisplayName    string `json:"display_name,omitempty"`
	Tag            string `json:"tag,omitempty"`
	LinkedinURL    string `json:"linkedin_url,omitempty"`
	PinnedLocation string `json:"pinned_location,omitempty"`
	EventName      string `json:"event_name,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
}

// IsEmpty reports whether no draft field has been set
func (d OnboardingDraft) IsEmpty() bool {
	return d == OnboardingDraft{}
}

// ThreadLog pairs a thread summary with its full message log, for export
type ThreadLog struct {
	Thread   ThreadSummary `json:"thread" yaml:"thread"`
	Messages []Message     `json:"messages" yaml:"messages"`
}

// ParseThreadDelta parses a raw push-channel frame
func ParseThreadDelta(data []byte) (*ThreadDelta, error) {
	var delta ThreadDelta
	if err := json.Unmarshal(data, &delta); err != nil {
		return nil, &ParseError{Source: "push-channel", Key: string(truncate(data, 80)), Err: err}
	}
	if delta.ThreadID == 0 {
		return nil, &ParseError{Source: "push-channel", Key: string(truncate(data, 80)), Err: fmt.Errorf("missing thread_id")}
	}
	delta.UpdatedAtMillis = ParseEventTime(delta.UpdatedAt)
	return &delta, nil
}

// ParseEventTime converts a server RFC3339 timestamp to Unix milliseconds.
// Unparseable or empty input yields 0, the "never seen" watermark.
func ParseEventTime(value string) int64 {
	if value == "" {
		return 0
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UnixMilli()
		}
	}
	LogDebug("Unparseable event timestamp: %q", value)
	return 0
}

func truncate(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	return data[:n]
}
