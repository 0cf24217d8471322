package export

import (
	"encoding/json"
	"io"

	"github.com/map4expo/expo-session/internal"
)

// JSONExporter exports thread logs in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a thread log to JSON format
func (e *JSONExporter) Export(log *internal.ThreadLog, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(log)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
