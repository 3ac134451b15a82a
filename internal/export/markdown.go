package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"voice-studio/internal/session"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(s session.Session, w io.Writer) error {
	if len(s.Messages) == 0 {
		return ErrEmptySession
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "**Session:** %s  \n", s.ID)
	if !s.LastModified.IsZero() {
		fmt.Fprintf(&b, "**Last modified:** %s  \n", s.LastModified.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "**Messages:** %d\n\n", len(s.Messages))
	b.WriteString("---\n\n")

	for i, msg := range s.Messages {
		fmt.Fprintf(&b, "**%s:**\n\n%s\n\n", msg.Role, escapeMarkdown(msg.Content))
		if i < len(s.Messages)-1 {
			b.WriteString("---\n\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// escapeMarkdown escapes bold/underline markers outside fenced code blocks.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCode := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		line = strings.ReplaceAll(line, "**", "\\*\\*")
		lines[i] = strings.ReplaceAll(line, "__", "\\_\\_")
	}
	return strings.Join(lines, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
