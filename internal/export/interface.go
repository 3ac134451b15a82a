// Package export renders sessions and transcripts as downloadable files.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"voice-studio/internal/llm"
	"voice-studio/internal/session"
)

var ErrEmptySession = errors.New("session has no messages")

// Exporter writes a session in one download format.
type Exporter interface {
	Export(s session.Session, w io.Writer) error
	Extension() string
}

// NewExporter creates an exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "", "txt", "text":
		return &TextExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: txt, md, json, yaml)", format)
	}
}

// FileName returns the default download name for an export made at now.
func FileName(e Exporter, now time.Time) string {
	return fmt.Sprintf("chat-history-%d.%s", now.UnixMilli(), e.Extension())
}

// document is the structured form shared by the json and yaml exporters.
type document struct {
	ID           string        `json:"id" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	LastModified time.Time     `json:"lastModified" yaml:"last_modified"`
	Messages     []llm.Message `json:"messages" yaml:"messages"`
}

func toDocument(s session.Session) document {
	return document{ID: s.ID, Title: s.Title, LastModified: s.LastModified.UTC(), Messages: s.Messages}
}
