package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"voice-studio/internal/export"
	"voice-studio/internal/session"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a session to a file",
	Long: `Export a session's messages. The default text format matches the chat
download: each message as ROLE followed by its content, separated by ---.

Examples:
  studio export                     # current session as chat-history-<ms>.txt
  studio export abc123 --format md
  studio export --format yaml -o trip.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			s, err := pickSession(ctx, a, args)
			if err != nil {
				return err
			}
			path, err := exportSession(s, exportFormat, exportOut)
			if err != nil {
				return err
			}
			fmt.Println("Saved " + path)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "txt", "Export format: txt, md, json, yaml")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default chat-history-<ms>.<ext> in the current directory)")
	rootCmd.AddCommand(exportCmd)
}

// exportSession writes s in format to out, or to the default file name in
// the working directory when out is empty. It returns the written path.
func exportSession(s session.Session, format, out string) (string, error) {
	e, err := export.NewExporter(format)
	if err != nil {
		return "", err
	}
	if len(s.Messages) == 0 {
		return "", export.ErrEmptySession
	}
	if out == "" {
		out = export.FileName(e, time.Now())
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := e.Export(s, f); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return "", err
	}
	return out, f.Close()
}
