package ai

import "strings"

// ExtractJSONObject removes a surrounding markdown code fence and chatter from a model reply,
// returning the text between the first '{' and the last '}'. Backticks inside the object are
// kept. The input is returned trimmed when no object delimiters are present.
func ExtractJSONObject(raw string) string {
	content := trimCodeFence(strings.TrimSpace(raw))

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}

func trimCodeFence(content string) string {
	const fence = "```"
	if strings.HasPrefix(content, fence) {
		content = strings.TrimPrefix(content, fence)
		if newline := strings.IndexByte(content, '\n'); newline >= 0 && !strings.ContainsAny(content[:newline], "{}") {
			// opening line holds only the language tag
			content = content[newline+1:]
		} else {
			content = strings.TrimLeft(content, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		}
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), fence)
	return strings.TrimSpace(content)
}
