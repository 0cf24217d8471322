package internal

import (
	"fmt"
	"time"
)

// testMillis converts a small logical timestamp to an RFC3339 string whose
// ParseEventTime round-trips back to the same millisecond value
func testMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

// CreateTestThread creates a thread summary with a logical timestamp
func CreateTestThread(id int64, preview string, updatedMillis int64) ThreadSummary {
	return ThreadSummary{
		ID: id,
		Participants: []Participant{
			{ID: 1, Tag: "Founder"},
			{ID: 2, Tag: "Investor"},
		},
		LastMessage:     preview,
		UpdatedAt:       testMillis(updatedMillis),
		UpdatedAtMillis: updatedMillis,
	}
}

// CreateTestMessage creates a message in a thread
func CreateTestMessage(id, threadID, senderID int64, body string) Message {
	return Message{
		ID:        id,
		ThreadID:  threadID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: testMillis(id * 1000),
	}
}

// CreateTestDelta creates a push-channel delta, optionally embedding msg
func CreateTestDelta(threadID int64, updatedMillis int64, msg *Message) *ThreadDelta {
	return &ThreadDelta{
		ThreadID:        threadID,
		UpdatedAt:       testMillis(updatedMillis),
		UpdatedAtMillis: updatedMillis,
		Message:         msg,
	}
}

// CreateTestDraft creates a complete onboarding draft
func CreateTestDraft() OnboardingDraft {
	return OnboardingDraft{
		DisplayName:    "Ada",
		Tag:            "Founder",
		LinkedinURL:    "https://linkedin.com/in/ada",
		PinnedLocation: "Hall 4, Booth 12",
		EventName:      "India AI Summit",
		Transcript:     "I build speech tools for expo networking.",
	}
}

// DeltaFrame renders a delta as the raw JSON the push channel would carry
func DeltaFrame(threadID int64, updatedMillis int64, msg *Message) []byte {
	frame := fmt.Sprintf(`{"thread_id":%d,"updated_at":%q`, threadID, testMillis(updatedMillis))
	if msg != nil {
		frame += fmt.Sprintf(`,"message":{"id":%d,"thread":%d,"sender":%d,"body":%q,"created_at":%q}`,
			msg.ID, msg.ThreadID, msg.SenderID, msg.Body, msg.CreatedAt)
	}
	return []byte(frame + "}")
}
