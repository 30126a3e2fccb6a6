// Package report renders chat-ready text for opportunities, odds, games,
// bankrolls and bets. Output uses Telegram's legacy Markdown.
package report

import (
	"strings"
	"time"
	"unicode/utf8"

	"odds-edge-bot/internal/api"
)

// TimeLayout is how kickoff times are shown.
const TimeLayout = "01/02 15:04 UTC"

const maxNameLen = 30

// FormatTime renders t in UTC with TimeLayout.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "TBD"
	}
	return t.UTC().Format(TimeLayout)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// Escape makes user or API supplied text safe inside a Markdown message.
func Escape(s string) string {
	return markdownEscaper.Replace(s)
}

// name escapes and truncates a team, outcome or bookmaker name.
func name(s string) string {
	return Escape(Truncate(s, maxNameLen))
}

func matchup(away, home string) string {
	return name(away) + " @ " + name(home)
}

func sportLabel(key string) string {
	if key == "" {
		return "🌍 All sports"
	}
	if info, ok := api.LookupSport(key); ok {
		return info.Emoji + " " + info.Name
	}
	return Escape(key)
}
