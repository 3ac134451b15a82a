package export

import (
	"io"
	"strings"

	"voice-studio/internal/session"
)

// TextExporter writes the plain chat download: each message as
// "ROLE:\ncontent\n", separated by "\n---\n\n".
type TextExporter struct{}

func (e *TextExporter) Export(s session.Session, w io.Writer) error {
	if len(s.Messages) == 0 {
		return ErrEmptySession
	}
	parts := make([]string, len(s.Messages))
	for i, m := range s.Messages {
		parts[i] = strings.ToUpper(m.Role) + ":\n" + m.Content + "\n"
	}
	_, err := io.WriteString(w, strings.Join(parts, "\n---\n\n"))
	return err
}

func (e *TextExporter) Extension() string {
	return "txt"
}
