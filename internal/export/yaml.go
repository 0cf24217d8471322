package export

import (
	"io"

	"github.com/map4expo/expo-session/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports thread logs in YAML format
type YAMLExporter struct{}

// Export exports a thread log to YAML format
func (e *YAMLExporter) Export(log *internal.ThreadLog, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(log)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
