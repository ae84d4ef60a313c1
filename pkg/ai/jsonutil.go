package ai

import (
	"regexp"
	"strings"
)

var (
	jsonBlockPattern      = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectPattern     = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	jsonArrayBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*\\])\\s*```")
	jsonArrayPattern      = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	trailingCommaPattern  = regexp.MustCompile(`,\s*([}\]])`)
	markdownFencePattern  = regexp.MustCompile("(?s)^```(?:markdown|md)?\\s*\\n(.*?)\\n?```$")
)

// ExtractJSON pulls a JSON object out of a model reply, tolerating code
// fences and trailing commas.
func ExtractJSON(content string) string {
	if m := jsonBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		return cleanJSON(m[1])
	}
	if m := jsonObjectPattern.FindString(content); m != "" {
		return cleanJSON(m)
	}
	return ""
}

func ExtractJSONArray(content string) string {
	if m := jsonArrayBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		return cleanJSON(m[1])
	}
	if m := jsonArrayPattern.FindString(content); m != "" {
		return cleanJSON(m)
	}
	return ""
}

func cleanJSON(raw string) string {
	return trailingCommaPattern.ReplaceAllString(strings.TrimSpace(raw), "$1")
}

// StripFence removes a single markdown code fence wrapping the whole reply.
func StripFence(content string) string {
	content = strings.TrimSpace(content)
	if m := markdownFencePattern.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return content
}

// truncateForPrompt cuts content to maxChars, preferring a paragraph break.
func truncateForPrompt(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	cut := content[:maxChars]
	// don't split a UTF-8 sequence
	for len(cut) > 0 && !isRuneStart(cut[len(cut)-1]) {
		cut = cut[:len(cut)-1]
	}
	if len(cut) > 0 && cut[len(cut)-1] >= 0xC0 {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndex(cut, "\n\n"); i > maxChars/2 {
		cut = cut[:i]
	}
	return cut + "\n\n[Content truncated...]"
}

func isRuneStart(b byte) bool { return b < 0x80 || b >= 0xC0 }
