// Package tags holds the shared category-tag normalization routine used on
// every opportunity write path.
package tags

import "strings"

// Normalize trims each tag, drops empties and deduplicates. The dedup key is
// the trimmed lowercase form; the stored value is the first occurrence's
// trimmed original casing, in first-seen order.
func Normalize(raw []string) []string {
	if len(raw) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(raw))
	clean := make([]string, 0, len(raw))
	for _, tag := range raw {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		clean = append(clean, trimmed)
	}

	return clean
}
