// ABOUTME: Thread title summarizer derived from the first user message
// ABOUTME: Pure string transform; runs once per thread and never on edits

package chat

import "strings"

const fallbackTitle = "New conversation"

const maxTitleRunes = 50

// generateTitle derives a thread title from message text: the first
// sentence with its terminator dropped, else a 50-rune cap backed off to
// the last whitespace boundary. Empty input yields a fixed fallback.
func generateTitle(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	if s == "" {
		return fallbackTitle
	}

	if idx := strings.IndexAny(s, ".!?"); idx >= 0 {
		if first := strings.TrimSpace(s[:idx]); first != "" {
			return first
		}
		return fallbackTitle
	}

	runes := []rune(s)
	if len(runes) <= maxTitleRunes {
		return s
	}

	cut := string(runes[:maxTitleRunes])
	if idx := strings.LastIndexAny(cut, " \t"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
