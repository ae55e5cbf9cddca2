package app

import (
	"strings"
	"unicode/utf8"
)

const titleRunes = 50

// EstimateTokens is a rough fallback for providers that report no usage:
// words plus characters/4.
func EstimateTokens(text string) int {
	return len(strings.Fields(text)) + utf8.RuneCountInString(text)/4
}

func deriveTitle(firstMessage string) string {
	if utf8.RuneCountInString(firstMessage) <= titleRunes {
		return firstMessage
	}
	return string([]rune(firstMessage)[:titleRunes])
}
