package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"voice-studio/internal/artifact"
)

// FormatTimestamp renders seconds as m:ss. Zero, negative and NaN render
// as 0:00.
func FormatTimestamp(seconds float64) string {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// WriteTranscript writes the transcript text. With timestamps, every
// segment is written on its own line prefixed by its time range.
func WriteTranscript(t artifact.Transcript, w io.Writer, timestamps bool) error {
	if strings.TrimSpace(t.Text) == "" && len(t.Segments) == 0 {
		return errors.New("transcript is empty")
	}
	if !timestamps || len(t.Segments) == 0 {
		_, err := io.WriteString(w, t.Text+"\n")
		return err
	}
	var b strings.Builder
	for _, seg := range t.Segments {
		fmt.Fprintf(&b, "[%s - %s] %s\n", FormatTimestamp(seg.Start), FormatTimestamp(seg.End), strings.TrimSpace(seg.Text))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// TranscriptFileName returns the download name for t.
func TranscriptFileName(t artifact.Transcript) string {
	base := t.FileName
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "transcript"
	}
	return base + "-transcript.txt"
}
