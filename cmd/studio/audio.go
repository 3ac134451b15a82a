package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"voice-studio/internal/artifact"
	"voice-studio/internal/export"
	"voice-studio/internal/studio"
)

var (
	ttsVoice   string
	ttsOut     string
	timestamps bool
)

var ttsCmd = &cobra.Command{
	Use:   "tts <text>",
	Short: "Render text to speech and store the track",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			track, err := a.speech.Generate(ctx, strings.Join(args, " "), ttsVoice)
			if err != nil {
				return err
			}
			defer a.tracks.Release(track)
			fmt.Printf("Track %s (%s, %d bytes)\n", idStyle.Render(track.ID), track.Voice, len(track.Payload))
			if ttsOut == "" {
				return nil
			}
			return saveTrack(a.tracks, track, ttsOut)
		})
	},
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List speech voices",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, v := range studio.Voices {
			if v == cfg.TTSVoice {
				fmt.Println(currentMarker + " " + v)
				continue
			}
			fmt.Println("  " + v)
		}
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe a recording and store the transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return withApp(cmd, func(ctx context.Context, a *app) error {
			tr, err := a.transcriber.Transcribe(ctx, args[0], f)
			if err != nil {
				return err
			}
			return export.WriteTranscript(tr, os.Stdout, timestamps)
		})
	},
}

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "Manage generated speech tracks",
}

var tracksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracks, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			tracks, err := a.tracks.GetAll(ctx)
			if err != nil {
				return err
			}
			defer func() {
				for _, t := range tracks {
					a.tracks.Release(t)
				}
			}()
			fmt.Println(headerStyle.Render(fmt.Sprintf("Tracks (%d)", len(tracks))))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVOICE\tSIZE\tCREATED\tTEXT")
			for _, t := range tracks {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", idStyle.Render(t.ID), t.Voice, len(t.Payload),
					dateStyle.Render(t.CreatedAt.Local().Format(time.DateTime)), truncate(t.Text, 50))
			}
			return w.Flush()
		})
	},
}

var tracksSaveCmd = &cobra.Command{
	Use:   "save <id> <out.mp3>",
	Short: "Write a track's audio to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			t, err := a.tracks.Get(ctx, args[0])
			if err != nil {
				return err
			}
			defer a.tracks.Release(t)
			return saveTrack(a.tracks, t, args[1])
		})
	},
}

var tracksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.tracks.Delete(ctx, args[0])
		})
	},
}

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Manage stored transcripts",
}

var transcriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transcripts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			all, err := a.transcripts.GetAll(ctx)
			if err != nil {
				return err
			}
			fmt.Println(headerStyle.Render(fmt.Sprintf("Transcripts (%d)", len(all))))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILE\tDURATION\tCREATED\tTEXT")
			for _, t := range all {
				dur := "-"
				if t.Duration != nil {
					dur = export.FormatTimestamp(*t.Duration)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", idStyle.Render(t.ID), t.FileName, dur,
					dateStyle.Render(t.CreatedAt.Local().Format(time.DateTime)), truncate(t.Text, 50))
			}
			return w.Flush()
		})
	},
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			t, err := a.transcripts.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return export.WriteTranscript(t, os.Stdout, timestamps)
		})
	},
}

var transcriptsSaveCmd = &cobra.Command{
	Use:   "save <id> [dir]",
	Short: "Write a transcript to <file>-transcript.txt",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 2 {
			dir = args[1]
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			t, err := a.transcripts.Get(ctx, args[0])
			if err != nil {
				return err
			}
			path := filepath.Join(dir, export.TranscriptFileName(t))
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := export.WriteTranscript(t, f, timestamps); err != nil {
				return err
			}
			fmt.Println("Saved " + path)
			return nil
		})
	},
}

var transcriptsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.transcripts.Delete(ctx, args[0])
		})
	},
}

func init() {
	ttsCmd.Flags().StringVar(&ttsVoice, "voice", "", "Voice id (see: studio voices)")
	ttsCmd.Flags().StringVarP(&ttsOut, "out", "o", "", "Also write the mp3 to this file")
	transcribeCmd.Flags().BoolVar(&timestamps, "timestamps", false, "Print segment time ranges")
	transcriptsShowCmd.Flags().BoolVar(&timestamps, "timestamps", false, "Print segment time ranges")
	transcriptsSaveCmd.Flags().BoolVar(&timestamps, "timestamps", false, "Write segment time ranges")

	tracksCmd.AddCommand(tracksListCmd, tracksSaveCmd, tracksDeleteCmd)
	transcriptsCmd.AddCommand(transcriptsListCmd, transcriptsShowCmd, transcriptsSaveCmd, transcriptsDeleteCmd)
	rootCmd.AddCommand(ttsCmd, voicesCmd, transcribeCmd, tracksCmd, transcriptsCmd)
}

// saveTrack copies the audio behind the track's handle to path.
func saveTrack(store *artifact.TrackStore, t artifact.Track, path string) error {
	r, err := store.Registry().Open(t.URL)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println("Saved " + path)
	return nil
}
