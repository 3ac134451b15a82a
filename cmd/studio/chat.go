package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"voice-studio/internal/analytics"
	"voice-studio/internal/chat"
	"voice-studio/internal/llm"
	"voice-studio/internal/logx"
	"voice-studio/internal/scheduler"
)

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send one message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.chat.Send(ctx, sessionID, strings.Join(args, " "))
			return printReply(res, err)
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <index> <text>",
	Short: "Replace the message at index and everything after it, then ask again",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.chat.Edit(ctx, sessionID, idx, strings.Join(args[1:], " "))
			return printReply(res, err)
		})
	},
}

var regenerateCmd = &cobra.Command{
	Use:     "regenerate",
	Aliases: []string{"regen"},
	Short:   "Replace the last assistant reply with a new one",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.chat.Regenerate(ctx, sessionID)
			return printReply(res, err)
		})
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat in the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		closeLog, err := logx.ToFile(filepath.Join(cfg.DataDir, "studio.log"))
		if err != nil {
			return err
		}
		defer closeLog()

		return withApp(cmd, func(ctx context.Context, a *app) error {
			sched := newMaintenance(a)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			if sessionID != "" {
				if err := a.store.Select(ctx, sessionID); err != nil {
					return err
				}
			}
			r := &repl{a: a, in: bufio.NewScanner(os.Stdin), out: os.Stdout}
			return r.run(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(sendCmd, editCmd, regenerateCmd, chatCmd)
}

func printReply(res chat.Result, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\n", roleLabel(res.Reply.Role), res.Reply.Content)
	return nil
}

// newMaintenance schedules the WAL checkpoint and the daily usage report.
func newMaintenance(a *app) *scheduler.Scheduler {
	s := scheduler.New()
	s.Add(scheduler.Job{
		Name: "checkpoint",
		Spec: a.cfg.MaintenanceSchedule,
		Run:  a.db.Checkpoint,
	})
	if a.journal != nil {
		s.Add(scheduler.Job{
			Name: "daily-report",
			Spec: scheduler.DailyReportSpec,
			Run: func(ctx context.Context) error {
				now := time.Now().UTC()
				events, err := a.journal.LoadRange(now.Truncate(24*time.Hour), now)
				if err != nil {
					return err
				}
				stats := analytics.AnalyzeDay(events, now)
				log.Info("daily usage", "date", stats.Date, "turns", stats.Turns,
					"failures", stats.Failures, "sessions", stats.UniqueSessions, "tokens", stats.TotalTokens)
				return nil
			},
		})
	}
	return s
}

type repl struct {
	a   *app
	in  *bufio.Scanner
	out io.Writer
}

const replHelp = `Commands:
  /new                 start a new session
  /sessions            list sessions
  /select <id>         switch session
  /rename <title>      rename the current session
  /delete              delete the current session
  /history             print the current session
  /edit <index> <text> replace a message and ask again
  /regen               regenerate the last reply
  /model [id]          show or set the chat model
  /system [prompt]     show or set the system prompt
  /dictate <file>      transcribe a recording into the input
  /export [format]     write the session to a file (txt, md, json, yaml)
  /help                this help
  /quit                exit`

func (r *repl) run(ctx context.Context) error {
	cur, err := r.a.store.Current(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, headerStyle.Render("studio chat")+" "+titleStyle.Render(cur.Title)+" "+idStyle.Render(cur.ID))
	fmt.Fprintln(r.out, dateStyle.Render("Type /help for commands."))

	for {
		if draft := r.a.store.Draft(); draft != "" {
			fmt.Fprintf(r.out, "%s %s\n", dateStyle.Render("draft:"), draft)
		}
		fmt.Fprint(r.out, "> ")
		if !r.in.Scan() {
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			// Enter on an empty line submits a pending dictation.
			if draft := r.a.store.Draft(); draft != "" {
				line = draft
			} else {
				continue
			}
		}
		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}
		res, err := r.a.chat.Send(ctx, "", line)
		r.report(res, err)
	}
}

func (r *repl) report(res chat.Result, err error) {
	if err != nil {
		fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
		return
	}
	fmt.Fprintf(r.out, "%s\n%s\n\n", roleLabel(res.Reply.Role), res.Reply.Content)
}

func (r *repl) command(ctx context.Context, line string) (bool, error) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	a := r.a

	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/new":
		id, err := a.store.Create(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "New session "+idStyle.Render(id))
	case "/sessions":
		writeSessionTable(a.store.CurrentID(), a.store.List())
	case "/select":
		return false, a.store.Select(ctx, rest)
	case "/rename":
		return false, a.store.Rename(ctx, a.store.CurrentID(), rest)
	case "/delete":
		if err := a.store.Delete(ctx, a.store.CurrentID()); err != nil {
			return false, err
		}
		cur, err := a.store.Current(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "Now in "+titleStyle.Render(cur.Title)+" "+idStyle.Render(cur.ID))
	case "/history":
		cur, err := a.store.Current(ctx)
		if err != nil {
			return false, err
		}
		printMessages(r.out, cur.Messages)
	case "/edit":
		idxStr, text, _ := strings.Cut(rest, " ")
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return false, fmt.Errorf("usage: /edit <index> <text>")
		}
		res, err := a.chat.Edit(ctx, "", idx, text)
		r.report(res, err)
	case "/regen":
		res, err := a.chat.Regenerate(ctx, "")
		r.report(res, err)
	case "/model":
		if rest == "" {
			fmt.Fprintln(r.out, a.chat.Options().Model)
			return false, nil
		}
		if !llm.IsModelAllowed(llm.ModeChat, rest) {
			return false, fmt.Errorf("unknown chat model %q (see: studio models)", rest)
		}
		a.chat.SetModel(rest)
	case "/system":
		if rest == "" {
			fmt.Fprintln(r.out, a.chat.Options().SystemPrompt)
			return false, nil
		}
		a.chat.SetSystemPrompt(rest)
	case "/dictate":
		f, err := os.Open(rest)
		if err != nil {
			return false, err
		}
		defer f.Close()
		text, err := a.transcriber.Dictate(ctx, filepath.Base(rest), f)
		if err != nil {
			return false, err
		}
		a.store.SetDraft(text)
	case "/export":
		cur, err := a.store.Current(ctx)
		if err != nil {
			return false, err
		}
		path, err := exportSession(cur, rest, "")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "Saved "+path)
	default:
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}
	return false, nil
}
