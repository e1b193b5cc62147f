// Package fence pulls structured content out of free-form model responses.
// Extraction is a best-effort ladder, not validation: callers decide whether
// a missing block is fatal.
package fence

import "strings"

// StripJSON removes a single enclosing fenced block and an optional leading
// "json" tag. Content that is not fenced, or not fenced on both ends, is
// returned unchanged. The result is not validated as JSON.
func StripJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return content
	}

	parts := strings.Split(trimmed, "```")
	if len(parts) < 3 {
		return content
	}
	inner := parts[1]
	if strings.HasPrefix(inner, "json") {
		inner = strings.TrimSpace(inner[4:])
	}
	return strings.TrimSpace(inner)
}

// ExtractCSV locates a CSV table in a response: a ```csv block first, then
// any generic fenced block that carries a claim_id header. Returns "" when
// no table is present.
func ExtractCSV(response string) string {
	if strings.Contains(response, "```csv") {
		parts := strings.Split(response, "```csv")
		if len(parts) > 1 {
			return strings.TrimSpace(strings.Split(parts[1], "```")[0])
		}
	}

	parts := strings.Split(response, "```")
	for i := 1; i < len(parts); i += 2 {
		block := parts[i]
		if strings.Contains(block, ",") && strings.Contains(strings.ToLower(block), "claim_id") {
			return strings.TrimSpace(block)
		}
	}
	return ""
}

// ExtractTrailingMarkdown returns the text after the response's last fenced
// block, or "" when the response has no usable separation.
func ExtractTrailingMarkdown(response string) string {
	parts := strings.Split(response, "```")
	if len(parts) > 2 {
		return strings.TrimSpace(parts[len(parts)-1])
	}
	return ""
}

// ExtractMarkdown locates the primary Markdown document in a response:
// a ```markdown block first, then the first generic fenced block containing
// a heading line. Returns "" when neither is found; callers fall back to the
// raw response.
func ExtractMarkdown(response string) string {
	if strings.Contains(response, "```markdown") {
		parts := strings.Split(response, "```markdown")
		if len(parts) > 1 {
			return strings.TrimSpace(strings.Split(parts[1], "```")[0])
		}
	}

	parts := strings.Split(response, "```")
	for i := 1; i < len(parts); i += 2 {
		block := parts[i]
		for _, line := range strings.Split(block, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				return strings.TrimSpace(block)
			}
		}
	}
	return ""
}
