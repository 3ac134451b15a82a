package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"voice-studio/internal/llm"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	currentMarker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Render("*")
)

func roleLabel(role string) string {
	switch role {
	case llm.RoleUser:
		return userStyle.Render("you")
	case llm.RoleAssistant:
		return assistantStyle.Render("assistant")
	default:
		return dateStyle.Render(role)
	}
}

func printMessages(w io.Writer, msgs []llm.Message) {
	for i, m := range msgs {
		fmt.Fprintf(w, "%s %s\n%s\n\n", idStyle.Render(fmt.Sprintf("[%d]", i)), roleLabel(m.Role), m.Content)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
