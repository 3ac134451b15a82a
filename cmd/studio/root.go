package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"voice-studio/internal/config"
	"voice-studio/internal/logx"
)

var (
	envFile   string
	logLevel  string
	sessionID string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Chat sessions, speech and transcription from the terminal",
	Long: `studio keeps multi-session chats with an LLM, renders text to speech
and transcribes recordings. Sessions, tracks and transcripts persist locally
between runs.

Quick Start:
  studio chat                       # interactive chat in the current session
  studio send "hello"               # one message, print the reply
  studio sessions list              # list sessions, newest first
  studio tts "Good morning" -o a.mp3
  studio transcribe memo.m4a --timestamps`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil {
			log.Debug(".env file not loaded", "path", envFile, "err", err)
		}
		c, err := config.New()
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		if err := logx.Setup(c.LogLevel, os.Stderr); err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to a .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "Session id (defaults to the current session)")
}

// withApp wires the components, runs fn and tears everything down.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
