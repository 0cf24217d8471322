package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/map4expo/expo-session/internal"
)

// JSONLExporter exports thread logs in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a thread log to JSONL format
func (e *JSONLExporter) Export(log *internal.ThreadLog, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range log.Messages {
		obj := map[string]interface{}{
			"id":     msg.ID,
			"sender": msg.SenderID,
			"body":   msg.Body,
		}
		if msg.SenderRole != "" {
			obj["sender_role"] = msg.SenderRole
		}
		if msg.CreatedAt != "" {
			obj["created_at"] = msg.CreatedAt
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
