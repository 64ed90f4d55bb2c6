// Package tokenizer bounds generator payloads by token count.
package tokenizer

import (
	"strings"

	"github.com/sweetpotato0/voyager/message"
)

// Counter counts the tokens of a piece of text.
type Counter interface {
	CountTokens(text string) int
}

// WordCounter approximates token counts by whitespace-separated words. It
// needs no encoding tables and is used when no model tokenizer is configured.
type WordCounter struct{}

// CountTokens implements Counter.
func (WordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// FitMessages returns the longest suffix of msgs whose combined content fits in
// budget tokens. The newest message is always kept so the generator sees the
// utterance being answered. A non-positive budget disables trimming.
func FitMessages(c Counter, msgs []*message.Message, budget int) []*message.Message {
	if budget <= 0 || len(msgs) == 0 {
		return msgs
	}
	if c == nil {
		c = WordCounter{}
	}
	used := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		n := c.CountTokens(msgs[i].Content)
		if used+n > budget && start < len(msgs) {
			break
		}
		used += n
		start = i
	}
	return msgs[start:]
}
