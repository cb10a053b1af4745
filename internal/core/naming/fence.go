package naming

import "strings"

const fence = "```"

// StripCodeFence removes a markdown code fence wrapped around model output.
//
// A leading "```json" (any case) or bare "```" and a trailing "```" are
// removed along with surrounding whitespace. Text without fences is only
// trimmed, so applying the function twice yields the same result as once.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	for {
		next := stripOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func stripOnce(text string) string {
	if strings.HasPrefix(text, fence) {
		rest := text[len(fence):]
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		text = rest
	}
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}
