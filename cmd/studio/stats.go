package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voice-studio/internal/analytics"
	"voice-studio/internal/llm"
)

var (
	statsDate string
	statsJSON bool
	modelMode string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show chat usage for a day from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC()
		if statsDate != "" {
			d, err := time.Parse(time.DateOnly, statsDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", statsDate)
			}
			day = d
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if a.journal == nil {
				return errors.New("journal disabled (JOURNAL_FILE_PATH is empty)")
			}
			events, err := a.journal.Load()
			if err != nil {
				return err
			}
			stats := analytics.AnalyzeDay(events, day)
			if statsJSON {
				out, err := stats.ToJSON()
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			}
			fmt.Print(stats.Summary())
			return nil
		})
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models by mode (chat, transcribe, tts)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		modes := []llm.Mode{llm.ModeChat, llm.ModeTranscribe, llm.ModeTTS}
		if modelMode != "" {
			m := llm.Mode(strings.ToLower(modelMode))
			if len(llm.ModelsFor(m)) == 0 {
				return fmt.Errorf("unknown mode %q", modelMode)
			}
			modes = []llm.Mode{m}
		}
		configured := map[string]bool{cfg.ChatModel: true, cfg.TranscribeModel: true, cfg.TTSModel: true}
		for _, m := range modes {
			fmt.Println(headerStyle.Render(string(m)))
			for _, id := range llm.ModelsFor(m) {
				mark := " "
				if configured[id] {
					mark = currentMarker
				}
				fmt.Printf("%s %s %s\n", mark, id, dateStyle.Render(llm.Models[id]))
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsDate, "date", "", "Day to report, YYYY-MM-DD in UTC (default today)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print JSON")
	modelsCmd.Flags().StringVar(&modelMode, "mode", "", "Only list one mode")
	rootCmd.AddCommand(statsCmd, modelsCmd)
}
