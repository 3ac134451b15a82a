package export

import (
	"io"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"voice-studio/internal/session"
)

// JSONExporter exports sessions in JSON format (pretty-printed)
type JSONExporter struct{}

func (e *JSONExporter) Export(s session.Session, w io.Writer) error {
	if len(s.Messages) == 0 {
		return ErrEmptySession
	}
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toDocument(s))
}

func (e *JSONExporter) Extension() string {
	return "json"
}

// YAMLExporter exports sessions in YAML format
type YAMLExporter struct{}

func (e *YAMLExporter) Export(s session.Session, w io.Writer) error {
	if len(s.Messages) == 0 {
		return ErrEmptySession
	}
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(toDocument(s))
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
