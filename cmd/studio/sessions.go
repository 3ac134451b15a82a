package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"voice-studio/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Manage chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently modified first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			list := a.store.List()
			if len(list) == 0 {
				fmt.Println("No sessions yet. Start one with: studio chat")
				return nil
			}
			fmt.Println(headerStyle.Render(fmt.Sprintf("Sessions (%d)", len(list))))
			writeSessionTable(a.store.CurrentID(), list)
			return nil
		})
	},
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a session and make it current",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			id, err := a.store.Create(ctx)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		})
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a session's messages",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			s, err := pickSession(ctx, a, args)
			if err != nil {
				return err
			}
			fmt.Println(titleStyle.Render(s.Title) + " " + idStyle.Render(s.ID))
			fmt.Println()
			printMessages(os.Stdout, s.Messages)
			return nil
		})
	},
}

var sessionsSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Make a session current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.store.Select(ctx, args[0])
		})
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <title>",
	Short: "Rename the current (or --session) session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			s, err := pickSession(ctx, a, nil)
			if err != nil {
				return err
			}
			return a.store.Rename(ctx, s.ID, strings.Join(args, " "))
		})
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.store.Delete(ctx, args[0]); err != nil {
				return err
			}
			if cur := a.store.CurrentID(); cur != "" {
				fmt.Printf("Deleted. Current session: %s\n", cur)
			} else {
				fmt.Println("Deleted. No sessions left.")
			}
			return nil
		})
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsNewCmd, sessionsShowCmd, sessionsSelectCmd, sessionsRenameCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// pickSession resolves args[0], then --session, then the current session.
func pickSession(ctx context.Context, a *app, args []string) (session.Session, error) {
	id := sessionID
	if len(args) > 0 {
		id = args[0]
	}
	if id != "" {
		return a.store.Get(id)
	}
	return a.store.Current(ctx)
}

func writeSessionTable(current string, list []session.Session) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tTITLE\tMESSAGES\tMODIFIED")
	for _, s := range list {
		mark := " "
		if s.ID == current {
			mark = currentMarker
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			mark, idStyle.Render(s.ID), titleStyle.Render(truncate(s.Title, 40)),
			len(s.Messages), dateStyle.Render(s.LastModified.Local().Format(time.DateTime)))
	}
	_ = w.Flush()
}
