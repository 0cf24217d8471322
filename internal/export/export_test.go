package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/map4expo/expo-session/internal"
)

func testLog() *internal.ThreadLog {
	return &internal.ThreadLog{
		Thread: internal.ThreadSummary{
			ID: 7,
			Participants: []internal.Participant{
				{ID: 1, Tag: "Founder"},
				{ID: 2, Tag: "Investor"},
			},
			LastMessage: "see you there",
			UpdatedAt:   "2025-06-01T10:00:01Z",
		},
		Messages: []internal.Message{
			{ID: 1, ThreadID: 7, SenderID: 1, SenderRole: "Founder", Body: "hi, loved your pitch", CreatedAt: "2025-06-01T10:00:00Z"},
			{ID: 2, ThreadID: 7, SenderID: 2, Body: "see you there", CreatedAt: "2025-06-01T10:00:01Z"},
		},
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format    string
		extension string
		wantErr   bool
	}{
		{"jsonl", "jsonl", false},
		{"md", "md", false},
		{"markdown", "md", false},
		{"yaml", "yaml", false},
		{"json", "json", false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for format %q", tt.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewExporter(%q) failed: %v", tt.format, err)
			}
			if exporter.Extension() != tt.extension {
				t.Errorf("Extension = %q, want %q", exporter.Extension(), tt.extension)
			}
		})
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(testLog(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var decoded internal.ThreadLog
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.Thread.ID != 7 {
		t.Errorf("Expected thread 7, got %d", decoded.Thread.ID)
	}
	if len(decoded.Messages) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(decoded.Messages))
	}
}

func TestJSONLExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(testLog(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("Line %d is not valid JSON: %v", i+1, err)
		}
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Failed to parse first line: %v", err)
	}
	if first["body"] != "hi, loved your pitch" {
		t.Errorf("Unexpected first body: %v", first["body"])
	}
	if first["sender_role"] != "Founder" {
		t.Errorf("Expected sender_role on the first line, got %v", first["sender_role"])
	}

	var second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Failed to parse second line: %v", err)
	}
	if _, ok := second["sender_role"]; ok {
		t.Error("Empty sender_role should be omitted")
	}
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(testLog(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "# Thread 7") {
		t.Error("Missing thread header")
	}
	if !strings.Contains(out, "Founder, Investor") {
		t.Error("Missing participant tags")
	}
	if !strings.Contains(out, "**Founder:**") {
		t.Error("Missing sender role heading")
	}
	// Without a role the sender falls back to the profile id.
	if !strings.Contains(out, "**profile 2:**") {
		t.Error("Missing profile-id fallback for the second sender")
	}
	if !strings.Contains(out, "hi, loved your pitch") {
		t.Error("Missing message body")
	}
}

func TestMarkdownExporter_EscapesSpecialCharacters(t *testing.T) {
	log := testLog()
	log.Messages = []internal.Message{
		{ID: 1, ThreadID: 7, SenderID: 1, Body: "**bold** claims\n```\n**verbatim**\n```"},
	}

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(log, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `\*\*bold\*\*`) {
		t.Errorf("Emphasis not escaped in output:\n%s", out)
	}
	if !strings.Contains(out, "**verbatim**") {
		t.Errorf("Code block content should stay verbatim:\n%s", out)
	}
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(testLog(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "thread:") {
		t.Error("Missing thread section")
	}
	if !strings.Contains(out, "messages:") {
		t.Error("Missing messages section")
	}
	if !strings.Contains(out, "hi, loved your pitch") {
		t.Error("Missing message body")
	}
}

func TestExport_EmptyLog(t *testing.T) {
	log := &internal.ThreadLog{Thread: internal.ThreadSummary{ID: 7}}

	for _, format := range []string{"json", "jsonl", "md", "yaml"} {
		exporter, err := NewExporter(format)
		if err != nil {
			t.Fatalf("NewExporter(%q) failed: %v", format, err)
		}
		var buf bytes.Buffer
		if err := exporter.Export(log, &buf); err != nil {
			t.Errorf("Export(%q) failed on empty log: %v", format, err)
		}
	}
}
