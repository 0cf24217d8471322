package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/map4expo/expo-session/internal"
)

// MarkdownExporter exports thread logs in Markdown format
type MarkdownExporter struct{}

// Export exports a thread log to Markdown format
func (e *MarkdownExporter) Export(log *internal.ThreadLog, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# Thread %d\n\n", log.Thread.ID)

	if len(log.Thread.Participants) > 0 {
		tags := make([]string, 0, len(log.Thread.Participants))
		for _, p := range log.Thread.Participants {
			tag := p.Tag
			if tag == "" {
				tag = fmt.Sprintf("profile %d", p.ID)
			}
			tags = append(tags, tag)
		}
		_, _ = fmt.Fprintf(w, "**Participants:** %s  \n", strings.Join(tags, ", "))
	}
	if log.Thread.UpdatedAt != "" {
		_, _ = fmt.Fprintf(w, "**Updated:** %s  \n", log.Thread.UpdatedAt)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(log.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	// Messages
	for i, msg := range log.Messages {
		sender := msg.SenderRole
		if sender == "" {
			sender = fmt.Sprintf("profile %d", msg.SenderID)
		}
		timestamp := ""
		if msg.CreatedAt != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.CreatedAt)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", sender, timestamp, escapeMarkdown(msg.Body))

		if i < len(log.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
