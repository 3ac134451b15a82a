package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"voice-studio/internal/storage"
)

// DailyStats summarizes one day of journaled chat turns.
type DailyStats struct {
	Date           string                  `json:"date"`
	Turns          int                     `json:"turns"`
	Failures       int                     `json:"failures"`
	UniqueSessions int                     `json:"unique_sessions"`
	TotalTokens    int                     `json:"total_tokens"`
	ByOp           map[string]int          `json:"by_op"`
	ByModel        map[string]int          `json:"by_model"`
	SessionStats   map[string]SessionStats `json:"session_stats"`
}

type SessionStats struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
	Failures  int    `json:"failures"`
	Tokens    int    `json:"tokens"`
}

// AnalyzeDay aggregates events whose timestamp falls on day, in day's
// location.
func AnalyzeDay(events []storage.Event, day time.Time) *DailyStats {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:         start.Format("2006-01-02"),
		ByOp:         make(map[string]int),
		ByModel:      make(map[string]int),
		SessionStats: make(map[string]SessionStats),
	}

	for _, ev := range events {
		if ev.Timestamp.Before(start) || !ev.Timestamp.Before(end) {
			continue
		}
		stats.Turns++
		stats.ByOp[ev.Op]++
		if ev.Model != "" {
			stats.ByModel[ev.Model]++
		}
		stats.TotalTokens += ev.TotalTokens

		ss, ok := stats.SessionStats[ev.SessionID]
		if !ok {
			ss = SessionStats{SessionID: ev.SessionID}
		}
		ss.Turns++
		ss.Tokens += ev.TotalTokens
		if ev.Failed() {
			stats.Failures++
			ss.Failures++
		}
		stats.SessionStats[ev.SessionID] = ss
	}

	stats.UniqueSessions = len(stats.SessionStats)
	return stats
}

// Summary renders a short plain-text report.
func (ds *DailyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage for %s\n", ds.Date)
	fmt.Fprintf(&b, "- turns: %d (%d failed)\n", ds.Turns, ds.Failures)
	fmt.Fprintf(&b, "- sessions: %d\n", ds.UniqueSessions)
	fmt.Fprintf(&b, "- tokens: %d\n", ds.TotalTokens)

	if len(ds.ByOp) > 0 {
		b.WriteString("By operation:\n")
		for _, op := range sortedKeys(ds.ByOp) {
			fmt.Fprintf(&b, "- %s: %d\n", op, ds.ByOp[op])
		}
	}
	if len(ds.ByModel) > 0 {
		b.WriteString("By model:\n")
		for _, m := range sortedKeys(ds.ByModel) {
			fmt.Fprintf(&b, "- %s: %d\n", m, ds.ByModel[m])
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := sonic.ConfigStd.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
